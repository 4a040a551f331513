package buffer

const minQueueSize = 16

// Queue is a FIFO that grows on demand. A positive limit turns it into a
// bounded queue that drops its oldest entry to make room.
type Queue[T any] struct {
	ring    *Ring[T]
	limit   int
	dropped uint64
}

func NewQueue[T any](limit int) *Queue[T] {
	if limit < 0 {
		limit = 0
	}
	size := minQueueSize
	if limit > 0 && limit < size {
		size = limit
	}
	return &Queue[T]{
		ring:  NewRing[T](size),
		limit: limit,
	}
}

// Push appends entry and reports whether the oldest entry was dropped to
// make room for it.
func (q *Queue[T]) Push(entry T) bool {
	if q == nil {
		return false
	}
	if q.ring.Len() == q.ring.Cap() && (q.limit == 0 || q.ring.Cap() < q.limit) {
		q.grow()
	}
	dropped := q.ring.Add(entry)
	if dropped {
		q.dropped++
	}
	return dropped
}

// Drain returns every queued entry in arrival order and empties the queue.
func (q *Queue[T]) Drain() []T {
	if q == nil {
		return nil
	}
	return q.ring.Drain()
}

func (q *Queue[T]) Len() int {
	if q == nil {
		return 0
	}
	return q.ring.Len()
}

// Dropped returns how many entries were discarded because of the limit.
func (q *Queue[T]) Dropped() uint64 {
	if q == nil {
		return 0
	}
	return q.dropped
}

func (q *Queue[T]) grow() {
	size := q.ring.Cap() * 2
	if q.limit > 0 && size > q.limit {
		size = q.limit
	}
	next := NewRing[T](size)
	for _, entry := range q.ring.List() {
		next.Add(entry)
	}
	q.ring = next
}
