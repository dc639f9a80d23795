package events

import (
	"sync"
	"sync/atomic"
)

// =============================================================================
// Subscriber Interface
// =============================================================================

// Subscriber receives events from the bus.
type Subscriber interface {
	// ID returns the unique subscriber identifier.
	ID() string

	// Kinds returns the event kinds this subscriber is interested in.
	// Empty slice means all events (wildcard subscription).
	Kinds() []EventKind

	// OnEvent is called when a subscribed event occurs.
	OnEvent(event *Event) error
}

// =============================================================================
// Bus
// =============================================================================

// Bus manages event subscriptions and delivery. Publishing never
// blocks: events beyond the buffer capacity are dropped and counted,
// and the drop count feeds event-system health.
type Bus struct {
	// subscribers maps event kind to list of subscribers
	subscribers map[EventKind][]Subscriber

	// wildcardSubscribers contains subscribers for all events
	wildcardSubscribers []Subscriber

	// buffer is the event buffer channel
	buffer chan *Event

	// dropped counts events discarded because the buffer was full
	dropped atomic.Int64

	// mu protects subscriber maps
	mu sync.RWMutex

	// dispatchMu protects dispatch goroutine startup/shutdown
	dispatchMu sync.Mutex

	// closed indicates if the bus is closed
	closed bool

	// done signals the dispatch goroutine to stop
	done chan struct{}

	// wg waits for the dispatch goroutine to finish
	wg sync.WaitGroup
}

// NewBus creates a new event bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	return &Bus{
		subscribers:         make(map[EventKind][]Subscriber),
		wildcardSubscribers: make([]Subscriber, 0),
		buffer:              make(chan *Event, bufferSize),
		done:                make(chan struct{}),
	}
}

// Publish publishes an event to the bus.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	b.mu.RUnlock()

	select {
	case b.buffer <- event:
	default:
		b.dropped.Add(1)
	}
}

// Subscribe registers a subscriber.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	kinds := sub.Kinds()

	if len(kinds) == 0 {
		b.wildcardSubscribers = append(b.wildcardSubscribers, sub)
		return
	}

	for _, kind := range kinds {
		b.subscribers[kind] = append(b.subscribers[kind], sub)
	}
}

// Unsubscribe removes a subscriber by ID.
func (b *Bus) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.wildcardSubscribers = filterSubs(b.wildcardSubscribers, subscriberID)

	for kind, subs := range b.subscribers {
		b.subscribers[kind] = filterSubs(subs, subscriberID)
	}
}

func filterSubs(subs []Subscriber, id string) []Subscriber {
	filtered := make([]Subscriber, 0, len(subs))
	for _, sub := range subs {
		if sub.ID() != id {
			filtered = append(filtered, sub)
		}
	}
	return filtered
}

// Start starts the dispatch goroutine.
func (b *Bus) Start() {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	if b.closed {
		return
	}

	b.wg.Add(1)
	go b.dispatch()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.buffer:
			b.deliverEvent(event)
		case <-b.done:
			return
		}
	}
}

func (b *Bus) deliverEvent(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.wildcardSubscribers {
		_ = sub.OnEvent(event)
	}

	if subs, ok := b.subscribers[event.Kind]; ok {
		for _, sub := range subs {
			_ = sub.OnEvent(event)
		}
	}
}

// Dropped returns the number of events discarded since startup.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Pending returns the number of buffered events awaiting dispatch.
func (b *Bus) Pending() int {
	return len(b.buffer)
}

// Close gracefully shuts down the bus.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()
}
