// Package buffer holds the in-memory sequences shared by the logger and the
// watcher event bridge.
package buffer

// Ring keeps the most recent entries up to a fixed size.
type Ring[T any] struct {
	entries []T
	start   int
	count   int
}

func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		size = 1
	}
	return &Ring[T]{
		entries: make([]T, size),
	}
}

// Add appends entry, overwriting the oldest one when the ring is full. It
// reports whether an entry was overwritten.
func (r *Ring[T]) Add(entry T) bool {
	if r == nil || len(r.entries) == 0 {
		return false
	}

	if r.count < len(r.entries) {
		index := (r.start + r.count) % len(r.entries)
		r.entries[index] = entry
		r.count++
		return false
	}

	r.entries[r.start] = entry
	r.start = (r.start + 1) % len(r.entries)
	return true
}

func (r *Ring[T]) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

func (r *Ring[T]) Cap() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// List returns the entries oldest first without consuming them.
func (r *Ring[T]) List() []T {
	if r == nil || r.count == 0 {
		return nil
	}

	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		index := (r.start + i) % len(r.entries)
		out[i] = r.entries[index]
	}
	return out
}

// Drain returns the entries oldest first and empties the ring.
func (r *Ring[T]) Drain() []T {
	out := r.List()
	if r == nil {
		return out
	}
	var zero T
	for i := range r.entries {
		r.entries[i] = zero
	}
	r.start = 0
	r.count = 0
	return out
}
