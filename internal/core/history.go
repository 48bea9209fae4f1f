package core

// DefaultLineageCapacity is the number of actions and snapshots kept per table.
const DefaultLineageCapacity = 50

// Ring is a fixed-capacity history that evicts its oldest entry when full.
// A Ring is a value: Push returns a new ring and never touches the receiver's
// backing array, so a stored ring can be read while a newer one is built.
type Ring[T any] struct {
	capacity int
	items    []T // oldest first
}

// NewRing returns an empty ring. Capacity below 1 uses DefaultLineageCapacity.
func NewRing[T any](capacity int) Ring[T] {
	if capacity < 1 {
		capacity = DefaultLineageCapacity
	}
	return Ring[T]{capacity: capacity}
}

// RingFrom rebuilds a ring from a most-recent-first list, as returned by Items.
// Entries beyond capacity are dropped from the old end.
func RingFrom[T any](capacity int, recentFirst []T) Ring[T] {
	r := NewRing[T](capacity)
	n := len(recentFirst)
	if n > r.capacity {
		n = r.capacity
	}
	r.items = make([]T, n)
	for i := 0; i < n; i++ {
		r.items[n-1-i] = recentFirst[i]
	}
	return r
}

// Push returns a ring with v appended as the most recent entry.
func (r Ring[T]) Push(v T) Ring[T] {
	if r.capacity < 1 {
		r.capacity = DefaultLineageCapacity
	}
	start := 0
	if len(r.items) >= r.capacity {
		start = len(r.items) - r.capacity + 1
	}
	next := make([]T, 0, r.capacity)
	next = append(next, r.items[start:]...)
	next = append(next, v)
	return Ring[T]{capacity: r.capacity, items: next}
}

// Items returns the entries most-recent-first.
func (r Ring[T]) Items() []T {
	out := make([]T, len(r.items))
	for i, v := range r.items {
		out[len(r.items)-1-i] = v
	}
	return out
}

// Len returns the number of stored entries.
func (r Ring[T]) Len() int { return len(r.items) }

// Cap returns the ring's capacity.
func (r Ring[T]) Cap() int { return r.capacity }
