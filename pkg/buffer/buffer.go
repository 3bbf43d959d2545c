// Package buffer provides a generic, thread-safe circular buffer with
// configurable overflow policies. Statistics are always collected so
// consumers can observe drops without wiring extra instrumentation.
package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/krisvansteen/Dashboards/errors"
)

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called with the item that was dropped due to overflow.
// It runs after the buffer lock has been released.
type DropCallback[T any] func(item T)

// Statistics tracks buffer activity. All counters are atomic and safe for
// concurrent access.
type Statistics struct {
	writes atomic.Int64
	reads  atomic.Int64
	drops  atomic.Int64
	size   atomic.Int64
}

// Writes returns the total number of successful writes.
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Reads returns the total number of successful reads.
func (s *Statistics) Reads() int64 { return s.reads.Load() }

// Drops returns the total number of items dropped by overflow policy.
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// Size returns the last observed buffer size.
func (s *Statistics) Size() int64 { return s.size.Load() }

// Option configures a Circular buffer.
type Option[T any] func(*options[T])

type options[T any] struct {
	policy OverflowPolicy
	onDrop DropCallback[T]
}

// WithOverflowPolicy sets the overflow policy (default DropOldest).
func WithOverflowPolicy[T any](policy OverflowPolicy) Option[T] {
	return func(o *options[T]) { o.policy = policy }
}

// WithDropCallback registers a callback invoked for each dropped item.
func WithDropCallback[T any](cb DropCallback[T]) Option[T] {
	return func(o *options[T]) { o.onDrop = cb }
}

// Circular is a fixed-capacity, thread-safe circular buffer.
type Circular[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	closed   bool
	stats    *Statistics
	opts     options[T]
}

// NewCircular creates a circular buffer with the given capacity.
func NewCircular[T any](capacity int, opts ...Option[T]) (*Circular[T], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"Buffer", "NewCircular", "validate capacity")
	}

	cb := &Circular[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    &Statistics{},
	}
	for _, opt := range opts {
		opt(&cb.opts)
	}
	return cb, nil
}

// Write adds an item to the buffer according to the overflow policy.
// It never blocks.
func (cb *Circular[T]) Write(item T) error {
	cb.mu.Lock()

	if cb.closed {
		cb.mu.Unlock()
		return errors.WrapInvalid(errors.ErrShuttingDown, "Buffer", "Write", "buffer closed")
	}

	var dropped T
	var didDrop bool

	if cb.size == cb.capacity {
		cb.stats.drops.Add(1)
		switch cb.opts.policy {
		case DropOldest:
			dropped = cb.items[cb.tail]
			didDrop = true
			cb.tail = (cb.tail + 1) % cb.capacity
			cb.size--
		case DropNewest:
			cb.mu.Unlock()
			if cb.opts.onDrop != nil {
				cb.opts.onDrop(item)
			}
			return nil
		}
	}

	cb.items[cb.head] = item
	cb.head = (cb.head + 1) % cb.capacity
	cb.size++
	cb.stats.writes.Add(1)
	cb.stats.size.Store(int64(cb.size))
	cb.mu.Unlock()

	// Callback runs outside the lock to avoid deadlock
	if didDrop && cb.opts.onDrop != nil {
		cb.opts.onDrop(dropped)
	}
	return nil
}

// Read retrieves and removes the oldest item from the buffer.
// Returns the zero value and false if the buffer is empty.
func (cb *Circular[T]) Read() (T, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	if cb.size == 0 {
		return zero, false
	}

	item := cb.items[cb.tail]
	cb.items[cb.tail] = zero // release reference
	cb.tail = (cb.tail + 1) % cb.capacity
	cb.size--
	cb.stats.reads.Add(1)
	cb.stats.size.Store(int64(cb.size))
	return item, true
}

// ReadBatch retrieves and removes up to max items from the buffer.
func (cb *Circular[T]) ReadBatch(max int) []T {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if max <= 0 || cb.size == 0 {
		return nil
	}
	n := max
	if n > cb.size {
		n = cb.size
	}

	var zero T
	batch := make([]T, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, cb.items[cb.tail])
		cb.items[cb.tail] = zero
		cb.tail = (cb.tail + 1) % cb.capacity
	}
	cb.size -= n
	cb.stats.reads.Add(int64(n))
	cb.stats.size.Store(int64(cb.size))
	return batch
}

// Size returns the current number of items in the buffer.
func (cb *Circular[T]) Size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.size
}

// Capacity returns the maximum number of items the buffer can hold.
func (cb *Circular[T]) Capacity() int {
	return cb.capacity
}

// Clear removes all items from the buffer.
func (cb *Circular[T]) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var zero T
	for i := range cb.items {
		cb.items[i] = zero
	}
	cb.head, cb.tail, cb.size = 0, 0, 0
	cb.stats.size.Store(0)
}

// Stats returns buffer statistics.
func (cb *Circular[T]) Stats() *Statistics {
	return cb.stats
}

// Close marks the buffer closed; subsequent writes fail, reads drain.
func (cb *Circular[T]) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.closed = true
	return nil
}
