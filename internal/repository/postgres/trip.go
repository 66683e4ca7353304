package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"buspass/internal/domain"
	"buspass/internal/repository"
)

// ActiveTripRepository is a PostgreSQL implementation of
// repository.ActiveTripRepository. Paths are stored as JSONB.
type ActiveTripRepository struct {
	db *sql.DB
	q  Querier
}

// NewActiveTripRepository creates a new PostgreSQL active trip repository.
func NewActiveTripRepository(db *sql.DB) *ActiveTripRepository {
	return &ActiveTripRepository{db: db, q: db}
}

// NewActiveTripRepositoryWithTx creates an active trip repository using a transaction.
func NewActiveTripRepositoryWithTx(tx *sql.Tx) *ActiveTripRepository {
	return &ActiveTripRepository{q: tx}
}

type jsonPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func marshalPath(path domain.Path) ([]byte, error) {
	points := make([]jsonPoint, 0, len(path))
	for _, p := range path {
		points = append(points, jsonPoint{Lat: p.Lat, Lng: p.Lng})
	}
	return json.Marshal(points)
}

func unmarshalPath(data []byte) (domain.Path, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var points []jsonPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}
	path := make(domain.Path, 0, len(points))
	for _, p := range points {
		path = append(path, domain.GeoPoint{Lat: p.Lat, Lng: p.Lng})
	}
	return path, nil
}

// Create persists a new active trip.
func (r *ActiveTripRepository) Create(ctx context.Context, trip *domain.ActiveTrip) error {
	mainPath, err := marshalPath(trip.MainPath)
	if err != nil {
		return err
	}
	approachPath, err := marshalPath(trip.ApproachPath)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO active_trips (
			id, rider_id, route_id, route_number, route_name,
			origin, destination, origin_lat, origin_lng, destination_lat, destination_lng,
			fare, main_path, approach_path, bus_start_name,
			phase, position_lat, position_lng, last_tick_at, charged_at, failure_reason, cancel_reason,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	var chargedAt sql.NullTime
	if trip.ChargedAt != nil {
		chargedAt = sql.NullTime{Time: *trip.ChargedAt, Valid: true}
	}

	_, err = r.q.ExecContext(ctx, query,
		trip.ID, trip.RiderID, trip.RouteID, trip.RouteNumber, trip.RouteName,
		trip.Origin, trip.Destination,
		trip.OriginCoords.Lat, trip.OriginCoords.Lng,
		trip.DestinationCoords.Lat, trip.DestinationCoords.Lng,
		trip.Fare, mainPath, approachPath, trip.BusStartName,
		trip.Phase, trip.Position.Lat, trip.Position.Lng,
		trip.LastTickAt, chargedAt, trip.FailureReason, trip.CancelReason,
		trip.CreatedAt, trip.UpdatedAt,
	)
	return err
}

const activeTripColumns = `
	id, rider_id, route_id, route_number, route_name,
	origin, destination, origin_lat, origin_lng, destination_lat, destination_lng,
	fare, main_path, approach_path, bus_start_name,
	phase, position_lat, position_lng, last_tick_at, charged_at, failure_reason, cancel_reason,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActiveTrip(row rowScanner) (*domain.ActiveTrip, error) {
	var trip domain.ActiveTrip
	var mainPath, approachPath []byte
	var chargedAt sql.NullTime

	err := row.Scan(
		&trip.ID, &trip.RiderID, &trip.RouteID, &trip.RouteNumber, &trip.RouteName,
		&trip.Origin, &trip.Destination,
		&trip.OriginCoords.Lat, &trip.OriginCoords.Lng,
		&trip.DestinationCoords.Lat, &trip.DestinationCoords.Lng,
		&trip.Fare, &mainPath, &approachPath, &trip.BusStartName,
		&trip.Phase, &trip.Position.Lat, &trip.Position.Lng,
		&trip.LastTickAt, &chargedAt, &trip.FailureReason, &trip.CancelReason,
		&trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if trip.MainPath, err = unmarshalPath(mainPath); err != nil {
		return nil, err
	}
	if trip.ApproachPath, err = unmarshalPath(approachPath); err != nil {
		return nil, err
	}
	if chargedAt.Valid {
		t := chargedAt.Time
		trip.ChargedAt = &t
	}

	return &trip, nil
}

// GetByID retrieves an active trip by ID.
func (r *ActiveTripRepository) GetByID(ctx context.Context, id string) (*domain.ActiveTrip, error) {
	query := `SELECT ` + activeTripColumns + ` FROM active_trips WHERE id = $1`

	trip, err := scanActiveTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetActiveByRiderID retrieves the rider's non-terminal trips.
func (r *ActiveTripRepository) GetActiveByRiderID(ctx context.Context, riderID string) ([]*domain.ActiveTrip, error) {
	query := `SELECT ` + activeTripColumns + `
		FROM active_trips
		WHERE rider_id = $1 AND phase IN ($2, $3)
		ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, riderID,
		domain.TripPhaseApproachingOrigin, domain.TripPhaseInTransit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.ActiveTrip
	for rows.Next() {
		trip, err := scanActiveTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// ListActive retrieves every non-terminal trip, oldest first.
func (r *ActiveTripRepository) ListActive(ctx context.Context) ([]*domain.ActiveTrip, error) {
	query := `SELECT ` + activeTripColumns + `
		FROM active_trips
		WHERE phase IN ($1, $2)
		ORDER BY created_at ASC`

	rows, err := r.q.QueryContext(ctx, query,
		domain.TripPhaseApproachingOrigin, domain.TripPhaseInTransit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.ActiveTrip
	for rows.Next() {
		trip, err := scanActiveTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// UpdatePosition overwrites the trip's current position.
func (r *ActiveTripRepository) UpdatePosition(ctx context.Context, id string, pos domain.GeoPoint, at time.Time) error {
	query := `
		UPDATE active_trips
		SET position_lat = $1, position_lng = $2, last_tick_at = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.q.ExecContext(ctx, query, pos.Lat, pos.Lng, at, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetPhase updates the trip phase and the extra fields the transition carries.
func (r *ActiveTripRepository) SetPhase(ctx context.Context, id string, phase domain.TripPhase, extra repository.PhaseUpdate) error {
	query := `
		UPDATE active_trips
		SET phase = $1,
		    charged_at = COALESCE($2, charged_at),
		    failure_reason = CASE WHEN $3 <> '' THEN $3 ELSE failure_reason END,
		    cancel_reason = CASE WHEN $4 <> '' THEN $4 ELSE cancel_reason END,
		    updated_at = NOW()
		WHERE id = $5
	`

	var chargedAt sql.NullTime
	if extra.ChargedAt != nil {
		chargedAt = sql.NullTime{Time: *extra.ChargedAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, phase, chargedAt, extra.FailureReason, extra.CancelReason, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ArchiveAndDelete writes the history record and removes the active trip in a
// single database transaction. Requires the repository to be constructed with
// a *sql.DB rather than an outer transaction.
func (r *ActiveTripRepository) ArchiveAndDelete(ctx context.Context, id string, history domain.TripHistory) error {
	if r.db == nil {
		return errors.New("postgres: ArchiveAndDelete requires a db-backed repository")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var chargedAt sql.NullTime
	if history.ChargedAt != nil {
		chargedAt = sql.NullTime{Time: *history.ChargedAt, Valid: true}
	}

	insert := `
		INSERT INTO trip_history (
			id, rider_id, route_id, route_number, route_name,
			origin, destination, fare, phase, charged_at, completed_at, cancel_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err = tx.ExecContext(ctx, insert,
		history.ID, history.RiderID, history.RouteID, history.RouteNumber, history.RouteName,
		history.Origin, history.Destination, history.Fare, history.Phase,
		chargedAt, history.CompletedAt, history.CancelReason,
	); err != nil {
		return err
	}

	var result sql.Result
	if result, err = tx.ExecContext(ctx, `DELETE FROM active_trips WHERE id = $1`, id); err != nil {
		return err
	}
	// A vanished active row means someone else archived the trip first; the
	// whole transaction rolls back so no duplicate history is written.
	if err = requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure ActiveTripRepository implements repository.ActiveTripRepository.
var _ repository.ActiveTripRepository = (*ActiveTripRepository)(nil)
