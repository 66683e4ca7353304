package repository

import (
	"context"

	"buspass/internal/domain"
)

// RouteRepository defines the persistence operations for bus routes.
type RouteRepository interface {
	// GetByID retrieves a route by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// GetAll retrieves all routes.
	GetAll(ctx context.Context) ([]*domain.Route, error)
}
