package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

// RechargeNotifier receives wallet recharge notifications. Implemented by
// NotificationService.
type RechargeNotifier interface {
	NotifyRecharge(txn *domain.LedgerTransaction)
}

// LedgerService owns wallet balances and the transaction journal.
// All balance mutations go through the atomic Debit/Credit of the
// underlying repository; the service only validates and shapes the
// transaction records.
type LedgerService struct {
	ledgerRepo repository.LedgerRepository
	userRepo   repository.UserRepository
	notifier   RechargeNotifier
}

// NewLedgerService creates a new LedgerService. notifier may be nil.
func NewLedgerService(ledgerRepo repository.LedgerRepository, userRepo repository.UserRepository, notifier RechargeNotifier) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// Recharge credits the user's wallet and records a completed
// recharge transaction. The user must exist.
func (s *LedgerService) Recharge(ctx context.Context, userID string, amount float64) (*domain.LedgerTransaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	txn := &domain.LedgerTransaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Direction:   domain.TransactionCredit,
		Category:    domain.CategoryRecharge,
		Amount:      amount,
		Description: "Wallet recharge",
		Status:      domain.TransactionCompleted,
	}

	newBalance, err := s.ledgerRepo.Credit(ctx, userID, amount, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}

	log.Printf("[LedgerService] Recharged %.2f for user %s, balance now %.2f", amount, userID, newBalance)
	if s.notifier != nil {
		s.notifier.NotifyRecharge(txn)
	}
	return txn, nil
}

// ChargeTripFare debits the trip's fare from the rider's wallet.
// On insufficient balance the repository records a failed transaction
// and returns repository.ErrInsufficientBalance; that error is passed
// through so the simulation can fail the trip.
func (s *LedgerService) ChargeTripFare(ctx context.Context, trip *domain.ActiveTrip) (*domain.LedgerTransaction, error) {
	if trip == nil || trip.ID == "" {
		return nil, ErrInvalidTripID
	}
	if trip.Fare <= 0 {
		return nil, ErrInvalidFare
	}

	txn := &domain.LedgerTransaction{
		ID:          uuid.New().String(),
		UserID:      trip.RiderID,
		TripID:      trip.ID,
		RouteID:     trip.RouteID,
		Direction:   domain.TransactionDebit,
		Category:    domain.CategoryTransport,
		Amount:      trip.Fare,
		Description: fmt.Sprintf("%s - %s to %s", trip.RouteNumber, trip.Origin, trip.Destination),
		Status:      domain.TransactionCompleted,
	}

	newBalance, err := s.ledgerRepo.Debit(ctx, trip.RiderID, trip.Fare, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to debit fare: %w", err)
	}

	log.Printf("[LedgerService] Charged fare %.2f for trip %s, rider %s balance now %.2f",
		trip.Fare, trip.ID, trip.RiderID, newBalance)
	return txn, nil
}

// GetBalance returns the user's current wallet balance.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (float64, error) {
	if userID == "" {
		return 0, ErrInvalidUserID
	}
	return s.ledgerRepo.GetBalance(ctx, userID)
}

// ListTransactions returns the user's transaction journal, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.ledgerRepo.ListTransactions(ctx, userID, limit)
}
