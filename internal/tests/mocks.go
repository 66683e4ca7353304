package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"buspass/internal/domain"
	"buspass/internal/geo"
	"buspass/internal/live"
	internalRedis "buspass/internal/redis"
	"buspass/internal/repository"
	"buspass/internal/service"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		routes: make(map[string]*domain.Route),
	}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) GetAll(ctx context.Context) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Route, 0, len(m.routes))
	for _, r := range m.routes {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK ACTIVE TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockActiveTripRepository is a mock implementation of ActiveTripRepository
// plus the TripHistoryRepository read side. Archive and delete happen under
// one mutex hold, mirroring the SQL transaction of the real store.
type MockActiveTripRepository struct {
	mu      sync.RWMutex
	trips   map[string]*domain.ActiveTrip
	history map[string]domain.TripHistory

	// Counters for verification
	CreateCallCount         int32
	UpdatePositionCallCount int32
	SetPhaseCallCount       int32
	ArchiveCallCount        int32

	// Error injection
	CreateError         error
	UpdatePositionError error
	ArchiveError        error

	// FailSetPhaseTimes makes the next N SetPhase calls fail.
	FailSetPhaseTimes int32
	SetPhaseError     error
}

// NewMockActiveTripRepository creates a new mock trip repository.
func NewMockActiveTripRepository() *MockActiveTripRepository {
	return &MockActiveTripRepository{
		trips:   make(map[string]*domain.ActiveTrip),
		history: make(map[string]domain.TripHistory),
	}
}

// AddTrip adds an active trip to the mock repository. Stores a copy so the
// caller's pointer stays independent of the store.
func (m *MockActiveTripRepository) AddTrip(trip *domain.ActiveTrip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
}

func (m *MockActiveTripRepository) Create(ctx context.Context, trip *domain.ActiveTrip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockActiveTripRepository) GetByID(ctx context.Context, id string) (*domain.ActiveTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockActiveTripRepository) GetActiveByRiderID(ctx context.Context, riderID string) ([]*domain.ActiveTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ActiveTrip
	for _, t := range m.trips {
		if t.RiderID == riderID && !t.Phase.Terminal() {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockActiveTripRepository) ListActive(ctx context.Context) ([]*domain.ActiveTrip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ActiveTrip
	for _, t := range m.trips {
		if !t.Phase.Terminal() {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockActiveTripRepository) UpdatePosition(ctx context.Context, id string, pos domain.GeoPoint, at time.Time) error {
	atomic.AddInt32(&m.UpdatePositionCallCount, 1)
	if m.UpdatePositionError != nil {
		return m.UpdatePositionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.Position = pos
	trip.LastTickAt = at
	trip.UpdatedAt = at
	return nil
}

func (m *MockActiveTripRepository) SetPhase(ctx context.Context, id string, phase domain.TripPhase, extra repository.PhaseUpdate) error {
	atomic.AddInt32(&m.SetPhaseCallCount, 1)
	if atomic.AddInt32(&m.FailSetPhaseTimes, -1) >= 0 {
		return m.SetPhaseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.Phase = phase
	if extra.ChargedAt != nil {
		trip.ChargedAt = extra.ChargedAt
	}
	if extra.FailureReason != "" {
		trip.FailureReason = extra.FailureReason
	}
	if extra.CancelReason != "" {
		trip.CancelReason = extra.CancelReason
	}
	return nil
}

func (m *MockActiveTripRepository) ArchiveAndDelete(ctx context.Context, id string, history domain.TripHistory) error {
	atomic.AddInt32(&m.ArchiveCallCount, 1)
	if m.ArchiveError != nil {
		return m.ArchiveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[id]; !ok {
		return repository.ErrNotFound
	}
	m.history[id] = history
	delete(m.trips, id)
	return nil
}

func (m *MockActiveTripRepository) ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.TripHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TripHistory
	for _, h := range m.history {
		if h.RiderID == riderID {
			copy := h
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ActiveTripCount returns how many trips are still active.
func (m *MockActiveTripRepository) ActiveTripCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ArchivedTrip returns the archive record for a trip, if any.
func (m *MockActiveTripRepository) ArchivedTrip(id string) (domain.TripHistory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.history[id]
	return h, ok
}

// ──────────────────────────────────────────────
// MOCK LEDGER REPOSITORY
// ──────────────────────────────────────────────

// MockLedgerRepository is a mock implementation of LedgerRepository. Debit
// and Credit hold one mutex across the balance check, the mutation and the
// transaction append, matching the row-locked SQL implementation.
type MockLedgerRepository struct {
	mu       sync.Mutex
	balances map[string]float64
	txns     []*domain.LedgerTransaction

	// Counters for verification
	DebitCallCount  int32
	CreditCallCount int32

	// Error injection
	DebitError  error
	CreditError error
}

// NewMockLedgerRepository creates a new mock ledger repository.
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		balances: make(map[string]float64),
	}
}

// SetBalance seeds a user's balance.
func (m *MockLedgerRepository) SetBalance(userID string, balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = balance
}

func (m *MockLedgerRepository) Debit(ctx context.Context, userID string, amount float64, txn *domain.LedgerTransaction) (float64, error) {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return 0, m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if balance < amount {
		txn.BalanceAfter = balance
		txn.Status = domain.TransactionFailed
		txn.FailureReason = repository.ErrInsufficientBalance.Error()
		txn.CreatedAt = time.Now()
		m.txns = append(m.txns, txn)
		return balance, repository.ErrInsufficientBalance
	}

	balance -= amount
	m.balances[userID] = balance
	txn.BalanceAfter = balance
	txn.Status = domain.TransactionCompleted
	txn.CreatedAt = time.Now()
	m.txns = append(m.txns, txn)
	return balance, nil
}

func (m *MockLedgerRepository) Credit(ctx context.Context, userID string, amount float64, txn *domain.LedgerTransaction) (float64, error) {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return 0, m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.balances[userID] + amount
	m.balances[userID] = balance
	txn.BalanceAfter = balance
	txn.Status = domain.TransactionCompleted
	txn.CreatedAt = time.Now()
	m.txns = append(m.txns, txn)
	return balance, nil
}

func (m *MockLedgerRepository) GetBalance(ctx context.Context, userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return balance, nil
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.LedgerTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.LedgerTransaction
	for _, t := range m.txns {
		if t.UserID == userID {
			copy := *t
			result = append(result, &copy)
		}
	}
	return result, nil
}

// Transactions returns every recorded transaction.
func (m *MockLedgerRepository) Transactions() []*domain.LedgerTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.LedgerTransaction, 0, len(m.txns))
	for _, t := range m.txns {
		copy := *t
		result = append(result, &copy)
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK LIVE PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records every published event.
type MockPublisher struct {
	mu     sync.Mutex
	events []live.Event
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(event live.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the published events.
func (m *MockPublisher) Events() []live.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]live.Event, len(m.events))
	copy(result, m.events)
	return result
}

// ──────────────────────────────────────────────
// MOCK POSITION STORE
// ──────────────────────────────────────────────

// MockPositionStore is a mock implementation of the Redis position mirror.
// FindNearbyBuses filters by haversine distance, standing in for the
// GEORADIUS query of the real store.
type MockPositionStore struct {
	mu        sync.RWMutex
	positions map[string]internalRedis.BusPosition

	// Counters for verification
	UpdateCallCount int32
	RemoveCallCount int32

	// Error injection
	UpdateError error
	GetError    error
}

// NewMockPositionStore creates a new mock position store.
func NewMockPositionStore() *MockPositionStore {
	return &MockPositionStore{
		positions: make(map[string]internalRedis.BusPosition),
	}
}

func (m *MockPositionStore) UpdatePosition(ctx context.Context, pos internalRedis.BusPosition) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.TripID] = pos
	return nil
}

func (m *MockPositionStore) GetPosition(ctx context.Context, tripID string) (*internalRedis.BusPosition, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[tripID]
	if !ok {
		return nil, nil
	}
	copy := pos
	return &copy, nil
}

func (m *MockPositionStore) FindNearbyBuses(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]internalRedis.BusPosition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []internalRedis.BusPosition
	for _, pos := range m.positions {
		if geo.DistanceKm(center, pos.Position) <= radiusKm {
			result = append(result, pos)
		}
	}
	return result, nil
}

func (m *MockPositionStore) RemovePosition(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, tripID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier counts lifecycle notifications.
type MockNotifier struct {
	CompletedCount    int32
	ChargeFailedCount int32
	CancelledCount    int32
	RechargeCount     int32
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyTripCompleted(history domain.TripHistory) {
	atomic.AddInt32(&m.CompletedCount, 1)
}

func (m *MockNotifier) NotifyChargeFailed(trip *domain.ActiveTrip, reason string) {
	atomic.AddInt32(&m.ChargeFailedCount, 1)
}

func (m *MockNotifier) NotifyTripCancelled(history domain.TripHistory) {
	atomic.AddInt32(&m.CancelledCount, 1)
}

func (m *MockNotifier) NotifyRecharge(txn *domain.LedgerTransaction) {
	atomic.AddInt32(&m.RechargeCount, 1)
}

// Ensure mocks satisfy the interfaces they stand in for.
var (
	_ repository.UserRepository            = (*MockUserRepository)(nil)
	_ repository.RouteRepository           = (*MockRouteRepository)(nil)
	_ repository.ActiveTripRepository      = (*MockActiveTripRepository)(nil)
	_ repository.TripHistoryRepository     = (*MockActiveTripRepository)(nil)
	_ repository.LedgerRepository          = (*MockLedgerRepository)(nil)
	_ live.Publisher                       = (*MockPublisher)(nil)
	_ internalRedis.PositionStoreInterface = (*MockPositionStore)(nil)
	_ service.RechargeNotifier             = (*MockNotifier)(nil)
)
