package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buspass/internal/service"
)

// UserHandler handles HTTP requests for riders.
type UserHandler struct {
	userService   *service.UserService
	ledgerService *service.LedgerService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, ledgerService *service.LedgerService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		ledgerService: ledgerService,
	}
}

// RegisterRequest is the HTTP request body for rider registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UserResponse is the HTTP response for rider data.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// BalanceResponse is the HTTP response for a wallet balance.
type BalanceResponse struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Phone: user.Phone,
	})
}

// GetBalance handles GET /v1/users/:id/balance
func (h *UserHandler) GetBalance(c *gin.Context) {
	userID := c.Param("id")

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		UserID:  userID,
		Balance: balance,
	})
}
