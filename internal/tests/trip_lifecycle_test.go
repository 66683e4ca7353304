package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"buspass/internal/domain"
	"buspass/internal/repository"
	"buspass/internal/service"
	"buspass/internal/sim"
)

// ──────────────────────────────────────────────
// TRIP LIFECYCLE
// ──────────────────────────────────────────────

func TestTrip_CompletesAndArchivesAtomically(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockActiveTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	publisher := NewMockPublisher()
	notifier := NewMockNotifier()

	trip := newTestTrip("rider-1")
	ledgerRepo.SetBalance("rider-1", 20)
	tripRepo.AddTrip(trip)

	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)
	manager := sim.NewManager(tripRepo, ledgerService, publisher, nil, nil, notifier, fastSimConfig())
	defer manager.StopAll()

	if err := manager.Start(trip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, 2*time.Second, "trip archive", func() bool {
		_, ok := tripRepo.ArchivedTrip(trip.ID)
		return ok
	})

	// Archive and delete are one operation: the history record exists and
	// the active trip is gone, never both or neither.
	history, _ := tripRepo.ArchivedTrip(trip.ID)
	if history.Phase != domain.TripPhaseCompleted {
		t.Errorf("archived phase = %s, want %s", history.Phase, domain.TripPhaseCompleted)
	}
	if history.ChargedAt == nil {
		t.Error("archived trip has no charge timestamp")
	}
	if tripRepo.ActiveTripCount() != 0 {
		t.Errorf("active trips = %d, want 0", tripRepo.ActiveTripCount())
	}

	if got := atomic.LoadInt32(&ledgerRepo.DebitCallCount); got != 1 {
		t.Errorf("debit calls = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&notifier.CompletedCount); got != 1 {
		t.Errorf("completed notifications = %d, want 1", got)
	}

	// The terminal event carries the arrival payload.
	events := publisher.Events()
	if len(events) == 0 {
		t.Fatal("no events published")
	}
	last := events[len(events)-1]
	if last.Phase != domain.TripPhaseCompleted || last.Completed == nil {
		t.Errorf("last event phase = %s, completed payload present = %v", last.Phase, last.Completed != nil)
	}
}

func TestTrip_ChargesFareExactlyOnce(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockActiveTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	notifier := NewMockNotifier()

	trip := newTestTrip("rider-1")
	ledgerRepo.SetBalance("rider-1", 10)
	tripRepo.AddTrip(trip)

	// Fail the first phase write after the charge: the engine hits the
	// origin again on the next tick and must not debit a second time.
	tripRepo.SetPhaseError = errors.New("connection reset")
	atomic.StoreInt32(&tripRepo.FailSetPhaseTimes, 1)

	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)
	manager := sim.NewManager(tripRepo, ledgerService, NewMockPublisher(), nil, nil, notifier, fastSimConfig())
	defer manager.StopAll()

	if err := manager.Start(trip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, 2*time.Second, "trip archive", func() bool {
		_, ok := tripRepo.ArchivedTrip(trip.ID)
		return ok
	})

	if got := atomic.LoadInt32(&ledgerRepo.DebitCallCount); got != 1 {
		t.Errorf("debit calls = %d, want exactly 1", got)
	}

	balance, err := ledgerRepo.GetBalance(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 10-trip.Fare {
		t.Errorf("balance = %.2f, want %.2f", balance, 10-trip.Fare)
	}
}

func TestTrip_InsufficientBalanceFailsTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockActiveTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	notifier := NewMockNotifier()

	trip := newTestTrip("rider-1")
	ledgerRepo.SetBalance("rider-1", 0)
	tripRepo.AddTrip(trip)

	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)
	manager := sim.NewManager(tripRepo, ledgerService, NewMockPublisher(), nil, nil, notifier, fastSimConfig())
	defer manager.StopAll()

	if err := manager.Start(trip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, 2*time.Second, "trip archive", func() bool {
		_, ok := tripRepo.ArchivedTrip(trip.ID)
		return ok
	})

	history, _ := tripRepo.ArchivedTrip(trip.ID)
	if history.Phase != domain.TripPhaseFailed {
		t.Errorf("archived phase = %s, want %s", history.Phase, domain.TripPhaseFailed)
	}
	if history.ChargedAt != nil {
		t.Error("failed trip has a charge timestamp")
	}
	if got := atomic.LoadInt32(&notifier.ChargeFailedCount); got != 1 {
		t.Errorf("charge failure notifications = %d, want 1", got)
	}

	// The only ledger record for the trip is the failed attempt.
	for _, txn := range ledgerRepo.Transactions() {
		if txn.TripID == trip.ID && txn.Status == domain.TransactionCompleted {
			t.Errorf("completed transaction %s recorded for failed trip", txn.ID)
		}
	}

	balance, err := ledgerRepo.GetBalance(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %.2f, want 0", balance)
	}
}

func TestTrip_PhaseWriteCarriesAllFields(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockActiveTripRepository()
	trip := newTestTrip("rider-1")
	tripRepo.AddTrip(trip)

	chargedAt := time.Now()
	err := tripRepo.SetPhase(context.Background(), trip.ID, domain.TripPhaseCancelled, repository.PhaseUpdate{
		ChargedAt:    &chargedAt,
		CancelReason: "changed plans",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := tripRepo.GetByID(context.Background(), trip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Phase != domain.TripPhaseCancelled {
		t.Errorf("phase = %s, want %s", stored.Phase, domain.TripPhaseCancelled)
	}
	if stored.ChargedAt == nil || !stored.ChargedAt.Equal(chargedAt) {
		t.Errorf("charged at = %v, want %v", stored.ChargedAt, chargedAt)
	}
	if stored.CancelReason != "changed plans" {
		t.Errorf("cancel reason = %q, want %q", stored.CancelReason, "changed plans")
	}
}

func TestTrip_PositionWriteFailureSkipsTick(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockActiveTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()

	trip := newTestTrip("rider-1")
	ledgerRepo.SetBalance("rider-1", 10)
	tripRepo.AddTrip(trip)
	tripRepo.UpdatePositionError = errors.New("connection reset")

	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)
	manager := sim.NewManager(tripRepo, ledgerService, NewMockPublisher(), nil, nil, nil, fastSimConfig())
	defer manager.StopAll()

	if err := manager.Start(trip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, time.Second, "ticks with failing store", func() bool {
		return atomic.LoadInt32(&tripRepo.UpdatePositionCallCount) >= 4
	})

	// The trip never progressed: no charge, still active.
	if got := atomic.LoadInt32(&ledgerRepo.DebitCallCount); got != 0 {
		t.Errorf("debit calls = %d, want 0", got)
	}
	if tripRepo.ActiveTripCount() != 1 {
		t.Errorf("active trips = %d, want 1", tripRepo.ActiveTripCount())
	}
}
