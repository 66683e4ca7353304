package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"buspass/internal/service"
)

// WalletHandler handles HTTP requests for wallet operations.
type WalletHandler struct {
	ledgerService *service.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerService *service.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerService: ledgerService}
}

// RechargeRequest is the HTTP request body for a wallet recharge.
type RechargeRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// TransactionResponse is the HTTP response for a ledger transaction.
type TransactionResponse struct {
	ID           string  `json:"id"`
	Direction    string  `json:"direction"`
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balance_after"`
	TripID       string  `json:"trip_id,omitempty"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
}

// Recharge handles POST /v1/wallet/recharge
func (h *WalletHandler) Recharge(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	txn, err := h.ledgerService.Recharge(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, TransactionResponse{
		ID:           txn.ID,
		Direction:    string(txn.Direction),
		Category:     string(txn.Category),
		Amount:       txn.Amount,
		BalanceAfter: txn.BalanceAfter,
		Description:  txn.Description,
		Status:       string(txn.Status),
		CreatedAt:    txn.CreatedAt.Format(time.RFC3339),
	})
}

// GetTransactions handles GET /v1/wallet/:id/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	transactions, err := h.ledgerService.ListTransactions(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, txn := range transactions {
		response = append(response, TransactionResponse{
			ID:           txn.ID,
			Direction:    string(txn.Direction),
			Category:     string(txn.Category),
			Amount:       txn.Amount,
			BalanceAfter: txn.BalanceAfter,
			TripID:       txn.TripID,
			Description:  txn.Description,
			Status:       string(txn.Status),
			CreatedAt:    txn.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(c, http.StatusOK, response)
}
