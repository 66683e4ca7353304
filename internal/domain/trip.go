package domain

import "time"

// TripPhase represents the current phase of a trip's lifecycle.
type TripPhase string

const (
	TripPhaseApproachingOrigin TripPhase = "APPROACHING_ORIGIN"
	TripPhaseInTransit         TripPhase = "IN_TRANSIT"
	TripPhaseCompleted         TripPhase = "COMPLETED"
	TripPhaseFailed            TripPhase = "FAILED"
	TripPhaseCancelled         TripPhase = "CANCELLED"
)

// Terminal reports whether the phase admits no further transitions.
func (p TripPhase) Terminal() bool {
	return p == TripPhaseCompleted || p == TripPhaseFailed || p == TripPhaseCancelled
}

// ActiveTrip is the mutable record of an in-progress trip. Position and phase
// are mutated only by the trip's own simulation engine; every other field is
// immutable after creation.
type ActiveTrip struct {
	ID          string
	RiderID     string
	RouteID     string
	RouteNumber string
	RouteName   string
	Origin      string
	Destination string

	OriginCoords      GeoPoint
	DestinationCoords GeoPoint
	Fare              float64

	// MainPath runs from origin to destination. ApproachPath is the optional
	// pre-route leg from the vehicle's start location to the origin.
	MainPath     Path
	ApproachPath Path
	BusStartName string

	Phase         TripPhase
	Position      GeoPoint
	LastTickAt    time.Time
	ChargedAt     *time.Time
	FailureReason string
	CancelReason  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TripHistory is the immutable archive record of a terminal trip.
// Append-only; never mutated once written.
type TripHistory struct {
	ID           string
	RiderID      string
	RouteID      string
	RouteNumber  string
	RouteName    string
	Origin       string
	Destination  string
	Fare         float64
	Phase        TripPhase
	ChargedAt    *time.Time
	CompletedAt  time.Time
	CancelReason string
}

// HistoryFromActive builds the archive record for a trip entering a terminal
// phase. completedAt covers completion, failure and cancellation alike.
func HistoryFromActive(trip *ActiveTrip, phase TripPhase, completedAt time.Time, cancelReason string) TripHistory {
	return TripHistory{
		ID:           trip.ID,
		RiderID:      trip.RiderID,
		RouteID:      trip.RouteID,
		RouteNumber:  trip.RouteNumber,
		RouteName:    trip.RouteName,
		Origin:       trip.Origin,
		Destination:  trip.Destination,
		Fare:         trip.Fare,
		Phase:        phase,
		ChargedAt:    trip.ChargedAt,
		CompletedAt:  completedAt,
		CancelReason: cancelReason,
	}
}
