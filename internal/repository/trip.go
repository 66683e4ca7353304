package repository

import (
	"context"
	"time"

	"buspass/internal/domain"
)

// PhaseUpdate carries the optional fields written alongside a phase change.
type PhaseUpdate struct {
	ChargedAt     *time.Time
	FailureReason string
	CancelReason  string
}

// ActiveTripRepository defines the persistence operations for in-progress
// trips. Position and phase writes are complete replacements of the relevant
// fields, so concurrent readers never observe a partial update.
type ActiveTripRepository interface {
	// Create persists a new active trip.
	Create(ctx context.Context, trip *domain.ActiveTrip) error

	// GetByID retrieves an active trip by ID.
	GetByID(ctx context.Context, id string) (*domain.ActiveTrip, error)

	// GetActiveByRiderID retrieves the rider's non-terminal trips.
	GetActiveByRiderID(ctx context.Context, riderID string) ([]*domain.ActiveTrip, error)

	// ListActive retrieves every non-terminal trip, oldest first. Used to
	// restart simulations after a process restart.
	ListActive(ctx context.Context) ([]*domain.ActiveTrip, error)

	// UpdatePosition overwrites the trip's current position. Idempotent.
	UpdatePosition(ctx context.Context, id string, pos domain.GeoPoint, at time.Time) error

	// SetPhase updates the trip phase plus any extra fields the transition
	// carries (charge time, failure reason, cancel reason).
	SetPhase(ctx context.Context, id string, phase domain.TripPhase, extra PhaseUpdate) error

	// ArchiveAndDelete writes the history record and removes the active trip
	// in a single atomic operation: either both happen or neither.
	ArchiveAndDelete(ctx context.Context, id string, history domain.TripHistory) error
}

// TripHistoryRepository defines the read side of the trip archive.
type TripHistoryRepository interface {
	// ListByRiderID retrieves the rider's archived trips, newest first.
	ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.TripHistory, error)
}
