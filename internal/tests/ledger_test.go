package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"buspass/internal/domain"
	"buspass/internal/repository"
	"buspass/internal/service"
)

// ──────────────────────────────────────────────
// FARE LEDGER
// ──────────────────────────────────────────────

func TestLedger_ConcurrentDebitsSingleSuccess(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)

	// Balance covers exactly one fare.
	ledgerRepo.SetBalance("rider-1", 4.50)

	tripA := newTestTrip("rider-1")
	tripB := newTestTrip("rider-1")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, trip := range []*domain.ActiveTrip{tripA, tripB} {
		wg.Add(1)
		go func(trip *domain.ActiveTrip) {
			defer wg.Done()
			_, err := ledgerService.ChargeTripFare(context.Background(), trip)
			results <- err
		}(trip)
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, repository.ErrInsufficientBalance):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || insufficient != 1 {
		t.Errorf("successes = %d, insufficient = %d; want 1 and 1", successes, insufficient)
	}

	balance, err := ledgerRepo.GetBalance(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %.2f, want 0", balance)
	}
}

func TestLedger_FailedDebitIsRecorded(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)

	ledgerRepo.SetBalance("rider-1", 1)
	trip := newTestTrip("rider-1")

	_, err := ledgerService.ChargeTripFare(context.Background(), trip)
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	txns := ledgerRepo.Transactions()
	if len(txns) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txns))
	}
	if txns[0].Status != domain.TransactionFailed {
		t.Errorf("status = %s, want %s", txns[0].Status, domain.TransactionFailed)
	}
	if txns[0].TripID != trip.ID {
		t.Errorf("trip id = %s, want %s", txns[0].TripID, trip.ID)
	}
	if txns[0].BalanceAfter != 1 {
		t.Errorf("balance after = %.2f, want untouched 1", txns[0].BalanceAfter)
	}
}

func TestLedger_RechargeCreditsAndRecords(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	notifier := NewMockNotifier()
	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, notifier)

	user := newTestUser(0)
	userRepo.AddUser(user)

	txn, err := ledgerService.Recharge(context.Background(), user.ID, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Direction != domain.TransactionCredit || txn.Category != domain.CategoryRecharge {
		t.Errorf("txn direction/category = %s/%s", txn.Direction, txn.Category)
	}
	if txn.BalanceAfter != 25 {
		t.Errorf("balance after = %.2f, want 25", txn.BalanceAfter)
	}

	balance, err := ledgerService.GetBalance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 25 {
		t.Errorf("balance = %.2f, want 25", balance)
	}
	if got := atomic.LoadInt32(&notifier.RechargeCount); got != 1 {
		t.Errorf("recharge notifications = %d, want 1", got)
	}
}

func TestLedger_RechargeValidation(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)

	if _, err := ledgerService.Recharge(context.Background(), "", 10); !errors.Is(err, service.ErrInvalidUserID) {
		t.Errorf("empty user: err = %v, want ErrInvalidUserID", err)
	}
	if _, err := ledgerService.Recharge(context.Background(), "rider-1", 0); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("zero amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := ledgerService.Recharge(context.Background(), "rider-1", -5); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("negative amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := ledgerService.Recharge(context.Background(), "ghost", 10); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown user: err = %v, want ErrNotFound", err)
	}
}
