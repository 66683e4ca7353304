package postgres

import (
	"context"
	"database/sql"
	"errors"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

const routeColumns = `
	id, number, name, origin, destination,
	origin_lat, origin_lng, destination_lat, destination_lng,
	fare, path, driver, duration_min, distance_km, created_at`

func scanRoute(row rowScanner) (*domain.Route, error) {
	var route domain.Route
	var path []byte

	err := row.Scan(
		&route.ID, &route.Number, &route.Name, &route.Origin, &route.Destination,
		&route.OriginCoords.Lat, &route.OriginCoords.Lng,
		&route.DestinationCoords.Lat, &route.DestinationCoords.Lng,
		&route.Fare, &path, &route.Driver, &route.DurationMin, &route.DistanceKm, &route.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if route.Path, err = unmarshalPath(path); err != nil {
		return nil, err
	}
	return &route, nil
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`

	route, err := scanRoute(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return route, nil
}

// GetAll retrieves all routes.
func (r *RouteRepository) GetAll(ctx context.Context) ([]*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY number`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
