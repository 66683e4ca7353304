package redis

import (
	"context"
	"time"

	"buspass/internal/domain"
)

// PositionStoreInterface defines the interface for bus position mirroring.
type PositionStoreInterface interface {
	UpdatePosition(ctx context.Context, pos BusPosition) error
	GetPosition(ctx context.Context, tripID string) (*BusPosition, error)
	FindNearbyBuses(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]BusPosition, error)
	RemovePosition(ctx context.Context, tripID string) error
}

// CacheStoreInterface defines the interface for route caching.
type CacheStoreInterface interface {
	GetRoute(ctx context.Context, routeID string) (*domain.Route, error)
	SetRoute(ctx context.Context, route *domain.Route) error
	InvalidateRoute(ctx context.Context, routeID string) error
}

// LockStoreInterface defines the interface for distributed trip locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	RefreshTripLock(ctx context.Context, tripID string, ttl time.Duration) error
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ PositionStoreInterface = (*PositionStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
