package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"buspass/internal/domain"
	"buspass/internal/service"
	"buspass/internal/sim"
)

// ──────────────────────────────────────────────
// BOOKING AND CANCELLATION
// ──────────────────────────────────────────────

func newBookingFixture(t *testing.T, cfg sim.Config) (*service.BookingService, *MockActiveTripRepository, *MockLedgerRepository, *domain.User, *domain.Route) {
	t.Helper()

	tripRepo := NewMockActiveTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	userRepo := NewMockUserRepository()
	routeRepo := NewMockRouteRepository()

	user := newTestUser(20)
	userRepo.AddUser(user)
	ledgerRepo.SetBalance(user.ID, 20)

	route := newTestRoute()
	routeRepo.AddRoute(route)

	ledgerService := service.NewLedgerService(ledgerRepo, userRepo, nil)
	routeService := service.NewRouteService(routeRepo, nil)
	manager := sim.NewManager(tripRepo, ledgerService, NewMockPublisher(), nil, nil, NewMockNotifier(), cfg)
	t.Cleanup(manager.StopAll)

	booking := service.NewBookingService(tripRepo, tripRepo, userRepo, routeService, manager)
	return booking, tripRepo, ledgerRepo, user, route
}

func TestBooking_RunsTripToCompletion(t *testing.T) {
	t.Parallel()

	booking, tripRepo, ledgerRepo, user, route := newBookingFixture(t, fastSimConfig())

	trip, err := booking.Book(context.Background(), service.BookTripRequest{
		RiderID: user.ID,
		RouteID: route.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Phase != domain.TripPhaseApproachingOrigin {
		t.Errorf("initial phase = %s, want %s", trip.Phase, domain.TripPhaseApproachingOrigin)
	}
	if len(trip.MainPath) < 2 || len(trip.ApproachPath) < 2 {
		t.Fatalf("trip paths not built: main %d points, approach %d points", len(trip.MainPath), len(trip.ApproachPath))
	}

	waitFor(t, 2*time.Second, "trip archive", func() bool {
		_, ok := tripRepo.ArchivedTrip(trip.ID)
		return ok
	})

	if got := atomic.LoadInt32(&ledgerRepo.DebitCallCount); got != 1 {
		t.Errorf("debit calls = %d, want 1", got)
	}

	history, err := booking.History(context.Background(), user.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	if history[0].Phase != domain.TripPhaseCompleted {
		t.Errorf("history phase = %s, want %s", history[0].Phase, domain.TripPhaseCompleted)
	}
}

func TestBooking_CancelIsIdempotent(t *testing.T) {
	t.Parallel()

	booking, tripRepo, _, user, route := newBookingFixture(t, slowSimConfig())

	trip, err := booking.Book(context.Background(), service.BookTripRequest{
		RiderID: user.ID,
		RouteID: route.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := booking.Cancel(context.Background(), trip.ID, "changed plans"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	history, ok := tripRepo.ArchivedTrip(trip.ID)
	if !ok {
		t.Fatal("cancelled trip not archived")
	}
	if history.Phase != domain.TripPhaseCancelled {
		t.Errorf("archived phase = %s, want %s", history.Phase, domain.TripPhaseCancelled)
	}
	if history.CancelReason != "changed plans" {
		t.Errorf("cancel reason = %q, want %q", history.CancelReason, "changed plans")
	}

	// Second cancel hits an already-archived trip and must not error or
	// write a second history record.
	archives := atomic.LoadInt32(&tripRepo.ArchiveCallCount)
	if err := booking.Cancel(context.Background(), trip.ID, "changed plans"); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got := atomic.LoadInt32(&tripRepo.ArchiveCallCount); got != archives {
		t.Errorf("archive calls after second cancel = %d, want %d", got, archives)
	}
}

func TestBooking_CancelAfterCompletionIsNoOp(t *testing.T) {
	t.Parallel()

	booking, tripRepo, _, user, route := newBookingFixture(t, fastSimConfig())

	trip, err := booking.Book(context.Background(), service.BookTripRequest{
		RiderID: user.ID,
		RouteID: route.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, 2*time.Second, "trip archive", func() bool {
		_, ok := tripRepo.ArchivedTrip(trip.ID)
		return ok
	})

	if err := booking.Cancel(context.Background(), trip.ID, "too late"); err != nil {
		t.Fatalf("cancel after completion: %v", err)
	}

	history, _ := tripRepo.ArchivedTrip(trip.ID)
	if history.Phase != domain.TripPhaseCompleted {
		t.Errorf("archived phase = %s, want %s (cancellation must not rewrite it)", history.Phase, domain.TripPhaseCompleted)
	}
}

func TestBooking_ReplacesExistingActiveTrip(t *testing.T) {
	t.Parallel()

	booking, tripRepo, _, user, route := newBookingFixture(t, slowSimConfig())

	first, err := booking.Book(context.Background(), service.BookTripRequest{
		RiderID: user.ID,
		RouteID: route.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := booking.Book(context.Background(), service.BookTripRequest{
		RiderID: user.ID,
		RouteID: route.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, ok := tripRepo.ArchivedTrip(first.ID)
	if !ok {
		t.Fatal("first trip not archived on rebooking")
	}
	if history.Phase != domain.TripPhaseCancelled {
		t.Errorf("first trip phase = %s, want %s", history.Phase, domain.TripPhaseCancelled)
	}

	if tripRepo.ActiveTripCount() != 1 {
		t.Errorf("active trips = %d, want 1", tripRepo.ActiveTripCount())
	}
	if _, err := tripRepo.GetByID(context.Background(), second.ID); err != nil {
		t.Errorf("second trip not active: %v", err)
	}
}

func TestBooking_ValidatesInput(t *testing.T) {
	t.Parallel()

	booking, _, _, user, route := newBookingFixture(t, slowSimConfig())

	cases := []struct {
		name string
		req  service.BookTripRequest
	}{
		{"missing rider", service.BookTripRequest{RouteID: route.ID}},
		{"missing route", service.BookTripRequest{RiderID: user.ID}},
		{"unknown rider", service.BookTripRequest{RiderID: "nobody", RouteID: route.ID}},
		{"unknown route", service.BookTripRequest{RiderID: user.ID, RouteID: "nowhere"}},
		{"bad coordinates", service.BookTripRequest{
			RiderID:  user.ID,
			RouteID:  route.ID,
			BusStart: &domain.GeoPoint{Lat: 200, Lng: 0},
		}},
	}
	for _, tc := range cases {
		if _, err := booking.Book(context.Background(), tc.req); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}
