package postgres

import (
	"context"
	"database/sql"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

// TripHistoryRepository is a PostgreSQL implementation of
// repository.TripHistoryRepository.
type TripHistoryRepository struct {
	q Querier
}

// NewTripHistoryRepository creates a new PostgreSQL trip history repository.
func NewTripHistoryRepository(db *sql.DB) *TripHistoryRepository {
	return &TripHistoryRepository{q: db}
}

// ListByRiderID retrieves the rider's archived trips, newest first.
func (r *TripHistoryRepository) ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.TripHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, rider_id, route_id, route_number, route_name,
		       origin, destination, fare, phase, charged_at, completed_at, cancel_reason
		FROM trip_history
		WHERE rider_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, riderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*domain.TripHistory
	for rows.Next() {
		var h domain.TripHistory
		var chargedAt sql.NullTime

		if err := rows.Scan(
			&h.ID, &h.RiderID, &h.RouteID, &h.RouteNumber, &h.RouteName,
			&h.Origin, &h.Destination, &h.Fare, &h.Phase,
			&chargedAt, &h.CompletedAt, &h.CancelReason,
		); err != nil {
			return nil, err
		}

		if chargedAt.Valid {
			t := chargedAt.Time
			h.ChargedAt = &t
		}
		history = append(history, &h)
	}

	return history, rows.Err()
}

// Ensure TripHistoryRepository implements repository.TripHistoryRepository.
var _ repository.TripHistoryRepository = (*TripHistoryRepository)(nil)
