package service

import (
	"context"
	"fmt"

	"buspass/internal/domain"
	"buspass/internal/redis"
	"buspass/internal/repository"
)

const (
	defaultNearbyRadiusKm = 2.0
	maxNearbyRadiusKm     = 50.0
)

// TrackingService serves map reads from the Redis position mirror. The mirror
// is written by the simulation engines; this service never touches the
// primary store.
type TrackingService struct {
	positions redis.PositionStoreInterface
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(positions redis.PositionStoreInterface) *TrackingService {
	return &TrackingService{positions: positions}
}

// GetTripPosition returns the latest mirrored position for the trip.
// A trip with no snapshot (never started, terminated, or mirror expired)
// yields repository.ErrNotFound.
func (s *TrackingService) GetTripPosition(ctx context.Context, tripID string) (*redis.BusPosition, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	pos, err := s.positions.GetPosition(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if pos == nil {
		return nil, repository.ErrNotFound
	}
	return pos, nil
}

// NearbyBuses returns the buses within radiusKm of center, nearest first.
// A non-positive radius falls back to the default; oversized radii are
// clamped rather than rejected.
func (s *TrackingService) NearbyBuses(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]redis.BusPosition, error) {
	if !center.Valid() {
		return nil, ErrInvalidCoordinates
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if radiusKm > maxNearbyRadiusKm {
		radiusKm = maxNearbyRadiusKm
	}

	buses, err := s.positions.FindNearbyBuses(ctx, center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby buses: %w", err)
	}
	return buses, nil
}
