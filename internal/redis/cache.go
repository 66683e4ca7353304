package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"buspass/internal/domain"
)

// RouteCacheTTL is deliberately long: routes change through admin tooling,
// not during normal operation.
const RouteCacheTTL = 5 * time.Minute

const routeCachePrefix = "cache:route:"

// CacheStore handles route caching in Redis. Bookings read routes on every
// request; the cache keeps that off the primary database.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetRoute retrieves a route from cache. Returns nil on a miss.
func (s *CacheStore) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	data, err := s.client.Get(ctx, routeCachePrefix+routeID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// SetRoute stores a route in cache.
func (s *CacheStore) SetRoute(ctx context.Context, route *domain.Route) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, routeCachePrefix+route.ID, data, RouteCacheTTL).Err()
}

// InvalidateRoute removes a route from cache.
func (s *CacheStore) InvalidateRoute(ctx context.Context, routeID string) error {
	return s.client.Del(ctx, routeCachePrefix+routeID).Err()
}
