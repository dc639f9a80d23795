package recovery

import "sync"

// RingBuffer is a thread-safe circular buffer with a fixed capacity.
// When full, new items overwrite the oldest. Recovery history lives in
// one of these so a long-running process never grows without bound.
type RingBuffer[T any] struct {
	items    []T
	head     int
	count    int
	capacity int
	mu       sync.RWMutex
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 50
	}
	return &RingBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push adds an item, overwriting the oldest when full.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.items[rb.head] = item
	rb.head = (rb.head + 1) % rb.capacity

	if rb.count < rb.capacity {
		rb.count++
	}
}

// Last returns the last n items in chronological order (oldest to
// newest). If n exceeds the count, all items are returned.
func (rb *RingBuffer[T]) Last(n int) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || rb.count == 0 {
		return nil
	}
	if n > rb.count {
		n = rb.count
	}

	result := make([]T, n)
	start := (rb.head - n + rb.capacity) % rb.capacity
	for i := 0; i < n; i++ {
		result[i] = rb.items[(start+i)%rb.capacity]
	}
	return result
}

// All returns every retained item in chronological order.
func (rb *RingBuffer[T]) All() []T {
	rb.mu.RLock()
	count := rb.count
	rb.mu.RUnlock()
	return rb.Last(count)
}

// Newest returns the most recently pushed item.
func (rb *RingBuffer[T]) Newest() (T, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var zero T
	if rb.count == 0 {
		return zero, false
	}
	idx := (rb.head - 1 + rb.capacity) % rb.capacity
	return rb.items[idx], true
}

// Len returns the current number of items.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the capacity.
func (rb *RingBuffer[T]) Cap() int {
	return rb.capacity
}
