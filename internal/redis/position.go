package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"buspass/internal/domain"
)

const (
	busPositionGeoKey = "buses:positions"
	busPositionTTL    = 2 * time.Minute
)

// BusPosition is a trip's latest simulated vehicle position.
type BusPosition struct {
	TripID    string           `json:"trip_id"`
	Position  domain.GeoPoint  `json:"position"`
	Phase     domain.TripPhase `json:"phase"`
	Timestamp time.Time        `json:"timestamp"`
}

// PositionStore mirrors the latest bus position per trip into Redis so map
// views can read it without touching the engine or the primary store.
type PositionStore struct {
	client *redis.Client
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(client *redis.Client) *PositionStore {
	return &PositionStore{client: client}
}

// UpdatePosition stores the trip's latest position using GEOADD plus a JSON
// snapshot with a TTL. Overwriting; safe to retry.
func (s *PositionStore) UpdatePosition(ctx context.Context, pos BusPosition) error {
	if err := s.client.GeoAdd(ctx, busPositionGeoKey, &redis.GeoLocation{
		Name:      pos.TripID,
		Longitude: pos.Position.Lng,
		Latitude:  pos.Position.Lat,
	}).Err(); err != nil {
		return err
	}

	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "bus:position:"+pos.TripID, data, busPositionTTL).Err()
}

// GetPosition returns the latest snapshot for a trip, or nil when absent.
func (s *PositionStore) GetPosition(ctx context.Context, tripID string) (*BusPosition, error) {
	data, err := s.client.Get(ctx, "bus:position:"+tripID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var pos BusPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

// FindNearbyBuses returns trip IDs of buses within the given radius (km).
func (s *PositionStore) FindNearbyBuses(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]BusPosition, error) {
	results, err := s.client.GeoRadius(ctx, busPositionGeoKey, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	buses := make([]BusPosition, 0, len(results))
	for _, r := range results {
		buses = append(buses, BusPosition{
			TripID:   r.Name,
			Position: domain.GeoPoint{Lat: r.Latitude, Lng: r.Longitude},
		})
	}
	return buses, nil
}

// RemovePosition removes a trip's bus from the geo index once it terminates.
func (s *PositionStore) RemovePosition(ctx context.Context, tripID string) error {
	if err := s.client.ZRem(ctx, busPositionGeoKey, tripID).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, "bus:position:"+tripID).Err()
}
