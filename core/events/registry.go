package events

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultActivityWindow is the trailing window used for liveness
	// and throughput inference.
	DefaultActivityWindow = 60 * time.Second

	// defaultWindowCapacity bounds the recency index; entries past the
	// window expire on their own, the capacity is a hard ceiling.
	defaultWindowCapacity = 10000
)

// KindStats is the per-kind view the registry exposes.
type KindStats struct {
	Kind     EventKind `json:"kind"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

type kindEntry struct {
	count    int64
	lastSeen time.Time
}

// Registry records, per event kind, an occurrence counter and
// last-seen timestamp. It is the only mechanism by which liveness of
// external orchestrators is inferred; nothing polls collaborator
// internals. A TTL-expiring LRU doubles as the trailing-window index
// for throughput checks.
type Registry struct {
	mu      sync.RWMutex
	entries map[EventKind]*kindEntry
	window  *expirable.LRU[string, EventKind]
	winSize time.Duration
}

// NewRegistry creates a registry with the given trailing window.
func NewRegistry(window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultActivityWindow
	}
	return &Registry{
		entries: make(map[EventKind]*kindEntry),
		window:  expirable.NewLRU[string, EventKind](defaultWindowCapacity, nil, window),
		winSize: window,
	}
}

// Observe records one occurrence of the event. The counter increment
// and timestamp update happen as one logical step under the lock.
func (r *Registry) Observe(event *Event) {
	r.mu.Lock()
	entry, ok := r.entries[event.Kind]
	if !ok {
		entry = &kindEntry{}
		r.entries[event.Kind] = entry
	}
	entry.count++
	entry.lastSeen = event.Timestamp
	r.mu.Unlock()

	r.window.Add(event.ID, event.Kind)
}

// Count returns the total occurrences recorded for a kind.
func (r *Registry) Count(kind EventKind) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[kind]; ok {
		return entry.count
	}
	return 0
}

// LastSeen returns the timestamp of the most recent occurrence of a kind.
func (r *Registry) LastSeen(kind EventKind) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[kind]
	if !ok || entry.lastSeen.IsZero() {
		return time.Time{}, false
	}
	return entry.lastSeen, true
}

// RecentCount returns the occurrences of a kind within the trailing window.
func (r *Registry) RecentCount(kind EventKind) int {
	count := 0
	for _, k := range r.window.Values() {
		if k == kind {
			count++
		}
	}
	return count
}

// TotalRecent returns all occurrences within the trailing window.
func (r *Registry) TotalRecent() int {
	return r.window.Len()
}

// AnyActive returns true if any of the given kinds was seen within the
// trailing window ending at now.
func (r *Registry) AnyActive(kinds []EventKind, now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := now.Add(-r.winSize)
	for _, kind := range kinds {
		if entry, ok := r.entries[kind]; ok && entry.lastSeen.After(cutoff) {
			return true
		}
	}
	return false
}

// Window returns the trailing window duration.
func (r *Registry) Window() time.Duration {
	return r.winSize
}

// Stats returns a stable snapshot of all recorded kinds.
func (r *Registry) Stats() []KindStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]KindStats, 0, len(r.entries))
	for _, kind := range ValidEventKinds() {
		if entry, ok := r.entries[kind]; ok {
			stats = append(stats, KindStats{
				Kind:     kind,
				Count:    entry.count,
				LastSeen: entry.lastSeen,
			})
		}
	}
	return stats
}

// =============================================================================
// Bus wiring
// =============================================================================

// registrySubscriber adapts a Registry to the Subscriber interface for
// the collaborator signal kinds.
type registrySubscriber struct {
	registry *Registry
}

// SubscribeRegistry wires the registry to every collaborator signal
// kind on the bus. Called once at initialization.
func SubscribeRegistry(bus *Bus, registry *Registry) {
	bus.Subscribe(&registrySubscriber{registry: registry})
}

func (s *registrySubscriber) ID() string {
	return "event-registry"
}

func (s *registrySubscriber) Kinds() []EventKind {
	return CollaboratorKinds()
}

func (s *registrySubscriber) OnEvent(event *Event) error {
	s.registry.Observe(event)
	return nil
}
