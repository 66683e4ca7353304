package live

import (
	"sync"
)

const subscriberBuffer = 64

// Hub delivers trip events to in-process subscribers. Each subscriber gets a
// buffered channel drained by its own goroutine, so a slow callback can never
// delay the engine; events beyond the buffer are dropped for that subscriber.
// Delivery order matches publish order for a single trip.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*subscriber // tripID -> subscriber set
}

type subscriber struct {
	ch chan Event
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]*subscriber)}
}

// Subscribe registers a callback invoked on every event for the trip. The
// returned function stops delivery; it is idempotent and safe to call from
// any goroutine.
func (h *Hub) Subscribe(tripID string, fn func(Event)) func() {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[tripID] == nil {
		h.subs[tripID] = make(map[int]*subscriber)
	}
	h.subs[tripID][id] = sub
	h.mu.Unlock()

	go func() {
		for event := range sub.ch {
			fn(event)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[tripID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(h.subs, tripID)
				}
			}
			close(sub.ch)
		})
	}
}

// Publish implements Publisher. Never blocks: subscribers whose buffer is
// full miss the event.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[event.TripID] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers a trip has.
func (h *Hub) SubscriberCount(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tripID])
}

// Ensure Hub implements Publisher.
var _ Publisher = (*Hub)(nil)
