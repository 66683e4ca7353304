package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"buspass/internal/domain"
	"buspass/internal/sim"
)

// fastSimConfig finishes a whole trip in tens of milliseconds using
// fixed-duration pacing.
func fastSimConfig() sim.Config {
	return sim.Config{
		TickInterval:       5 * time.Millisecond,
		OriginRadiusM:      200,
		DestinationRadiusM: 10,
		FixedLegDuration:   15 * time.Millisecond,
		RetryDelay:         time.Millisecond,
	}
}

// slowSimConfig never ticks within a test's lifetime.
func slowSimConfig() sim.Config {
	cfg := fastSimConfig()
	cfg.TickInterval = time.Hour
	return cfg
}

func newTestUser(balance float64) *domain.User {
	return &domain.User{
		ID:      uuid.New().String(),
		Name:    "Maria Silva",
		Phone:   "+55 49 99999-0001",
		Balance: balance,
	}
}

func newTestRoute() *domain.Route {
	return &domain.Route{
		ID:                uuid.New().String(),
		Number:            "205",
		Name:              "Centro - Efapi",
		Origin:            "Terminal Centro",
		Destination:       "Terminal Efapi",
		OriginCoords:      domain.GeoPoint{Lat: -27.1000, Lng: -52.6150},
		DestinationCoords: domain.GeoPoint{Lat: -27.1100, Lng: -52.6600},
		Fare:              4.50,
	}
}

// newTestTrip builds a trip whose approach path ends at the origin and whose
// main path ends at the destination.
func newTestTrip(riderID string) *domain.ActiveTrip {
	route := newTestRoute()
	now := time.Now()
	return &domain.ActiveTrip{
		ID:                uuid.New().String(),
		RiderID:           riderID,
		RouteID:           route.ID,
		RouteNumber:       route.Number,
		RouteName:         route.Name,
		Origin:            route.Origin,
		Destination:       route.Destination,
		OriginCoords:      route.OriginCoords,
		DestinationCoords: route.DestinationCoords,
		Fare:              route.Fare,
		ApproachPath:      domain.SyntheticPath(domain.GeoPoint{Lat: -27.0800, Lng: -52.6150}, route.OriginCoords, 5),
		MainPath:          domain.SyntheticPath(route.OriginCoords, route.DestinationCoords, 5),
		BusStartName:      "Depot",
		Phase:             domain.TripPhaseApproachingOrigin,
		Position:          domain.GeoPoint{Lat: -27.0800, Lng: -52.6150},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
