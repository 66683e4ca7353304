package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"buspass/internal/domain"
	"buspass/internal/live"
	"buspass/internal/redis"
	"buspass/internal/repository"
)

// ErrAlreadyRunning is returned when starting a trip whose engine exists.
var ErrAlreadyRunning = errors.New("trip simulation already running")

// ErrLockHeld is returned when another instance owns the trip's lock.
var ErrLockHeld = errors.New("trip lock held by another instance")

// Manager is the process-wide registry of running trip engines. One engine
// per trip; Start, Cancel and StopAll are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup

	trips     repository.ActiveTripRepository
	ledger    FareLedger
	publisher live.Publisher
	positions redis.PositionStoreInterface
	locks     redis.LockStoreInterface
	notifier  Notifier
	cfg       Config
}

func NewManager(
	trips repository.ActiveTripRepository,
	ledger FareLedger,
	publisher live.Publisher,
	positions redis.PositionStoreInterface,
	locks redis.LockStoreInterface,
	notifier Notifier,
	cfg Config,
) *Manager {
	return &Manager{
		cancels:   make(map[string]context.CancelFunc),
		trips:     trips,
		ledger:    ledger,
		publisher: publisher,
		positions: positions,
		locks:     locks,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
	}
}

// Start launches the engine goroutine for the trip. When a lock store is
// configured the engine runs only after winning the trip's lock, so two
// instances never simulate the same trip.
func (m *Manager) Start(trip *domain.ActiveTrip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cancels[trip.ID]; ok {
		return ErrAlreadyRunning
	}

	if m.locks != nil {
		acquired, err := m.locks.AcquireTripLock(context.Background(), trip.ID, 3*m.cfg.TickInterval)
		if err != nil {
			return fmt.Errorf("failed to acquire trip lock: %w", err)
		}
		if !acquired {
			return ErrLockHeld
		}
	}

	engine := NewEngine(trip, m.trips, m.ledger, m.publisher, m.positions, m.locks, m.notifier, m.cfg)
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[trip.ID] = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(trip.ID)
		engine.Run(ctx)
	}()

	log.Printf("[SimManager] Started simulation for trip %s", trip.ID)
	return nil
}

// ResumeAll restarts an engine for every trip still active in storage and
// returns how many were resumed. Called at boot so trips interrupted by a
// shutdown pick up where their last persisted position left off. Trips whose
// lock another instance holds are skipped, not failed.
func (m *Manager) ResumeAll(ctx context.Context) (int, error) {
	trips, err := m.trips.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active trips: %w", err)
	}

	resumed := 0
	for _, trip := range trips {
		if err := m.Start(trip); err != nil {
			if errors.Is(err, ErrAlreadyRunning) || errors.Is(err, ErrLockHeld) {
				continue
			}
			return resumed, fmt.Errorf("failed to resume trip %s: %w", trip.ID, err)
		}
		resumed++
	}

	if resumed > 0 {
		log.Printf("[SimManager] Resumed %d active trip(s)", resumed)
	}
	return resumed, nil
}

// Cancel stops the trip's engine and archives the trip as cancelled. A trip
// that is no longer active (already completed, failed or cancelled) is a
// no-op, so repeated cancellations are safe.
func (m *Manager) Cancel(ctx context.Context, tripID, reason string) error {
	m.stop(tripID)

	trip, err := m.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("[SimManager] Cancel of trip %s: already archived", tripID)
			return nil
		}
		return fmt.Errorf("failed to get trip: %w", err)
	}

	now := time.Now()
	if err := m.trips.SetPhase(ctx, tripID, domain.TripPhaseCancelled, repository.PhaseUpdate{
		CancelReason: reason,
	}); err != nil {
		// The engine may have archived the trip between the read above and
		// this write; that still counts as the trip being over.
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to mark trip cancelled: %w", err)
	}

	history := domain.HistoryFromActive(trip, domain.TripPhaseCancelled, now, reason)
	if err := m.trips.ArchiveAndDelete(ctx, tripID, history); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to archive cancelled trip: %w", err)
	}

	if m.positions != nil {
		if err := m.positions.RemovePosition(ctx, tripID); err != nil {
			log.Printf("[SimManager] Trip %s position cleanup failed: %v", tripID, err)
		}
	}
	if m.locks != nil {
		if err := m.locks.ReleaseTripLock(ctx, tripID); err != nil {
			log.Printf("[SimManager] Trip %s lock release failed: %v", tripID, err)
		}
	}
	if m.publisher != nil {
		m.publisher.Publish(live.Event{
			TripID:    tripID,
			Position:  trip.Position,
			Phase:     domain.TripPhaseCancelled,
			Timestamp: now,
		})
	}
	if m.notifier != nil {
		m.notifier.NotifyTripCancelled(history)
	}

	log.Printf("[SimManager] Trip %s cancelled: %s", tripID, reason)
	return nil
}

// Running reports whether the trip has a live engine in this process.
func (m *Manager) Running(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cancels[tripID]
	return ok
}

// StopAll cancels every engine and waits for them to exit. Called on
// shutdown; trips stay active in storage and resume on the next boot.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
	log.Println("[SimManager] All trip simulations stopped")
}

func (m *Manager) stop(tripID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[tripID]; ok {
		cancel()
		delete(m.cancels, tripID)
	}
}

func (m *Manager) remove(tripID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancels, tripID)
}
