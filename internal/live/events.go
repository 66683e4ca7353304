// Package live fans persisted trip state changes out to observers (map
// views, external consumers). Observers can never mutate engine state, and
// publishing never blocks the simulation tick loop.
package live

import (
	"time"

	"buspass/internal/domain"
)

// Event is emitted on every persisted change to an active trip.
type Event struct {
	TripID    string           `json:"trip_id"`
	Position  domain.GeoPoint  `json:"position"`
	Phase     domain.TripPhase `json:"phase"`
	Timestamp time.Time        `json:"timestamp"`

	// Completed is set only on the terminal completion event.
	Completed *TripCompleted `json:"completed,omitempty"`
}

// TripCompleted is the terminal notification payload consumed by the UI
// layer for the arrival screen.
type TripCompleted struct {
	TripID      string `json:"trip_id"`
	RouteName   string `json:"route_name"`
	RouteNumber string `json:"route_number"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Publisher is the engine-facing side of the bridge.
type Publisher interface {
	Publish(event Event)
}

// Fanout publishes every event to all wrapped publishers.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(event Event) {
	for _, p := range f {
		p.Publish(event)
	}
}
