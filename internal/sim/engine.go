package sim

import (
	"context"
	"log"
	"time"

	"buspass/internal/domain"
	"buspass/internal/geo"
	"buspass/internal/live"
	"buspass/internal/redis"
	"buspass/internal/repository"
)

// Config carries the tunables of the simulation loop.
type Config struct {
	TickInterval       time.Duration
	SpeedKmh           float64
	OriginRadiusM      float64
	DestinationRadiusM float64

	// FixedLegDuration switches pacing to a fixed wall-clock duration per
	// leg when positive. Zero keeps speed-based pacing.
	FixedLegDuration time.Duration

	// RetryDelay is the pause before the single retry of a failed
	// persistence write inside a tick.
	RetryDelay time.Duration
}

// DefaultConfig returns the production simulation parameters.
func DefaultConfig() Config {
	return Config{
		TickInterval:       10 * time.Second,
		SpeedKmh:           40,
		OriginRadiusM:      200,
		DestinationRadiusM: 10,
		RetryDelay:         500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.SpeedKmh <= 0 {
		c.SpeedKmh = d.SpeedKmh
	}
	if c.OriginRadiusM <= 0 {
		c.OriginRadiusM = d.OriginRadiusM
	}
	if c.DestinationRadiusM <= 0 {
		c.DestinationRadiusM = d.DestinationRadiusM
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	return c
}

func (c Config) pacing() Pacing {
	if c.FixedLegDuration > 0 {
		return FixedDurationPacing{LegDuration: c.FixedLegDuration}
	}
	return SpeedPacing{SpeedKmh: c.SpeedKmh}
}

// FareLedger is the engine's view of the wallet. Implemented by
// service.LedgerService.
type FareLedger interface {
	ChargeTripFare(ctx context.Context, trip *domain.ActiveTrip) (*domain.LedgerTransaction, error)
}

// Notifier receives user-facing lifecycle notifications. Implemented by
// service.NotificationService.
type Notifier interface {
	NotifyTripCompleted(history domain.TripHistory)
	NotifyChargeFailed(trip *domain.ActiveTrip, reason string)
	NotifyTripCancelled(history domain.TripHistory)
}

// Engine drives a single trip through its lifecycle. All trip mutations
// happen on the engine's own goroutine, so ticks are strictly sequential
// and no two writers ever race on the same trip.
type Engine struct {
	trip   *domain.ActiveTrip
	cursor Cursor

	trips     repository.ActiveTripRepository
	ledger    FareLedger
	publisher live.Publisher
	positions redis.PositionStoreInterface
	locks     redis.LockStoreInterface
	notifier  Notifier

	cfg    Config
	pacing Pacing
}

// NewEngine builds an engine for the trip. positions, locks, notifier and
// publisher may be nil; the engine degrades to the primary store only.
func NewEngine(
	trip *domain.ActiveTrip,
	trips repository.ActiveTripRepository,
	ledger FareLedger,
	publisher live.Publisher,
	positions redis.PositionStoreInterface,
	locks redis.LockStoreInterface,
	notifier Notifier,
	cfg Config,
) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		trip:      trip,
		trips:     trips,
		ledger:    ledger,
		publisher: publisher,
		positions: positions,
		locks:     locks,
		notifier:  notifier,
		cfg:       cfg,
		pacing:    cfg.pacing(),
	}
	e.cursor = NewCursor(e.currentLeg())
	if trip.Position.Valid() && (trip.Position != domain.GeoPoint{}) {
		// Re-seed the cursor from the persisted position so a resumed trip
		// does not replay its leg from the start.
		leg := e.currentLeg()
		e.cursor.Position = trip.Position
		e.cursor.DistanceKm = geo.DistanceAlongKm(leg, trip.Position)
		if total := geo.PathLengthKm(leg); total > 0 {
			e.cursor.Progress = e.cursor.DistanceKm / total
		}
	}
	return e
}

// Run ticks the trip until it reaches a terminal phase or ctx is cancelled.
// Blocking; callers run it on its own goroutine.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	log.Printf("[SimEngine] Trip %s started in phase %s", e.trip.ID, e.trip.Phase)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[SimEngine] Trip %s stopped: %v", e.trip.ID, ctx.Err())
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if done := e.tick(ctx, now, elapsed); done {
				return
			}
		}
	}
}

func (e *Engine) currentLeg() domain.Path {
	if e.trip.Phase == domain.TripPhaseApproachingOrigin {
		return e.trip.ApproachPath
	}
	return e.trip.MainPath
}

// tick advances the vehicle one step and applies any phase transition the
// new position triggers. Returns true when the trip reached a terminal
// phase and the engine must stop.
func (e *Engine) tick(ctx context.Context, now time.Time, elapsed time.Duration) bool {
	leg := e.currentLeg()
	e.cursor = e.pacing.Advance(leg, e.cursor, elapsed)
	pos := e.cursor.Position

	if err := e.withRetry(ctx, func() error {
		return e.trips.UpdatePosition(ctx, e.trip.ID, pos, now)
	}); err != nil {
		// Skip the tick; the next one overwrites the position anyway.
		log.Printf("[SimEngine] Trip %s position write failed: %v", e.trip.ID, err)
		return false
	}
	e.trip.Position = pos
	e.trip.LastTickAt = now

	e.mirrorPosition(ctx)
	e.refreshLock(ctx)
	e.publish(live.Event{
		TripID:    e.trip.ID,
		Position:  pos,
		Phase:     e.trip.Phase,
		Timestamp: now,
	})

	switch e.trip.Phase {
	case domain.TripPhaseApproachingOrigin:
		if e.pacing.Done(leg, e.cursor) || geo.DistanceMeters(pos, e.trip.OriginCoords) <= e.cfg.OriginRadiusM {
			return e.arriveAtOrigin(ctx, now)
		}
	case domain.TripPhaseInTransit:
		if e.pacing.Done(leg, e.cursor) || geo.DistanceMeters(pos, e.trip.DestinationCoords) <= e.cfg.DestinationRadiusM {
			return e.complete(ctx, now)
		}
	default:
		// A terminal phase in storage means someone else ended the trip.
		return true
	}
	return false
}

// arriveAtOrigin charges the fare exactly once and moves the trip onto the
// main leg. The ChargedAt guard makes a re-entered origin radius a no-op.
func (e *Engine) arriveAtOrigin(ctx context.Context, now time.Time) bool {
	if e.trip.ChargedAt == nil {
		txn, err := e.ledger.ChargeTripFare(ctx, e.trip)
		if err != nil {
			return e.fail(ctx, now, err.Error())
		}
		log.Printf("[SimEngine] Trip %s fare charged, txn %s", e.trip.ID, txn.ID)
		chargedAt := now
		e.trip.ChargedAt = &chargedAt
	}

	if err := e.withRetry(ctx, func() error {
		return e.trips.SetPhase(ctx, e.trip.ID, domain.TripPhaseInTransit, repository.PhaseUpdate{
			ChargedAt: e.trip.ChargedAt,
		})
	}); err != nil {
		// Charge already stuck; retry the transition on the next tick. The
		// ChargedAt guard prevents a second debit.
		log.Printf("[SimEngine] Trip %s phase write failed: %v", e.trip.ID, err)
		return false
	}

	e.trip.Phase = domain.TripPhaseInTransit
	e.cursor = NewCursor(e.trip.MainPath)
	e.publish(live.Event{
		TripID:    e.trip.ID,
		Position:  e.cursor.Position,
		Phase:     e.trip.Phase,
		Timestamp: now,
	})
	log.Printf("[SimEngine] Trip %s boarded at origin, now in transit", e.trip.ID)
	return false
}

func (e *Engine) complete(ctx context.Context, now time.Time) bool {
	history := domain.HistoryFromActive(e.trip, domain.TripPhaseCompleted, now, "")
	if err := e.withRetry(ctx, func() error {
		return e.trips.ArchiveAndDelete(ctx, e.trip.ID, history)
	}); err != nil {
		// Trip stays active; the next tick lands at the destination again
		// and retries the archive.
		log.Printf("[SimEngine] Trip %s archive failed: %v", e.trip.ID, err)
		return false
	}

	e.trip.Phase = domain.TripPhaseCompleted
	e.cleanup(ctx)
	e.publish(live.Event{
		TripID:    e.trip.ID,
		Position:  e.trip.DestinationCoords,
		Phase:     domain.TripPhaseCompleted,
		Timestamp: now,
		Completed: &live.TripCompleted{
			TripID:      e.trip.ID,
			RouteName:   e.trip.RouteName,
			RouteNumber: e.trip.RouteNumber,
			Origin:      e.trip.Origin,
			Destination: e.trip.Destination,
		},
	})
	if e.notifier != nil {
		e.notifier.NotifyTripCompleted(history)
	}
	log.Printf("[SimEngine] Trip %s completed and archived", e.trip.ID)
	return true
}

// fail ends the trip after an unrecoverable charge error.
func (e *Engine) fail(ctx context.Context, now time.Time, reason string) bool {
	if err := e.trips.SetPhase(ctx, e.trip.ID, domain.TripPhaseFailed, repository.PhaseUpdate{
		FailureReason: reason,
	}); err != nil {
		log.Printf("[SimEngine] Trip %s failure write failed: %v", e.trip.ID, err)
	}
	e.trip.Phase = domain.TripPhaseFailed
	e.trip.FailureReason = reason

	history := domain.HistoryFromActive(e.trip, domain.TripPhaseFailed, now, "")
	if err := e.withRetry(ctx, func() error {
		return e.trips.ArchiveAndDelete(ctx, e.trip.ID, history)
	}); err != nil {
		log.Printf("[SimEngine] Trip %s failed-archive failed: %v", e.trip.ID, err)
	}

	e.cleanup(ctx)
	e.publish(live.Event{
		TripID:    e.trip.ID,
		Position:  e.trip.Position,
		Phase:     domain.TripPhaseFailed,
		Timestamp: now,
	})
	if e.notifier != nil {
		e.notifier.NotifyChargeFailed(e.trip, reason)
	}
	log.Printf("[SimEngine] Trip %s failed: %s", e.trip.ID, reason)
	return true
}

// withRetry runs fn and retries it once after a short delay. Persistence
// hiccups inside a tick get one second chance before the tick gives up.
func (e *Engine) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(e.cfg.RetryDelay):
	}
	return fn()
}

// mirrorPosition is best effort; Redis being down never stalls the trip.
func (e *Engine) mirrorPosition(ctx context.Context) {
	if e.positions == nil {
		return
	}
	err := e.positions.UpdatePosition(ctx, redis.BusPosition{
		TripID:    e.trip.ID,
		Position:  e.trip.Position,
		Phase:     e.trip.Phase,
		Timestamp: e.trip.LastTickAt,
	})
	if err != nil {
		log.Printf("[SimEngine] Trip %s position mirror failed: %v", e.trip.ID, err)
	}
}

func (e *Engine) refreshLock(ctx context.Context) {
	if e.locks == nil {
		return
	}
	if err := e.locks.RefreshTripLock(ctx, e.trip.ID, 3*e.cfg.TickInterval); err != nil {
		log.Printf("[SimEngine] Trip %s lock refresh failed: %v", e.trip.ID, err)
	}
}

func (e *Engine) cleanup(ctx context.Context) {
	if e.positions != nil {
		if err := e.positions.RemovePosition(ctx, e.trip.ID); err != nil {
			log.Printf("[SimEngine] Trip %s position cleanup failed: %v", e.trip.ID, err)
		}
	}
	if e.locks != nil {
		if err := e.locks.ReleaseTripLock(ctx, e.trip.ID); err != nil {
			log.Printf("[SimEngine] Trip %s lock release failed: %v", e.trip.ID, err)
		}
	}
}

func (e *Engine) publish(event live.Event) {
	if e.publisher != nil {
		e.publisher.Publish(event)
	}
}
