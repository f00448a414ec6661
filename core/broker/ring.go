package broker

// Ring is a fixed-capacity FIFO. Pushing onto a full ring evicts the oldest item.
// It is not safe for concurrent use.
type Ring[T any] struct {
	buf  []T
	head int
	size int
}

// NewRing creates a ring holding at most capacity items. Capacity must be positive.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic("broker: ring capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v. When the ring is full the oldest item is removed and returned.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size == len(r.buf) {
		evicted = r.buf[r.head]
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return evicted, true
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	return evicted, false
}

// Pop removes and returns the oldest item.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return v, true
}

// Last returns up to n of the newest items, oldest first.
func (r *Ring[T]) Last(n int) []T {
	if n <= 0 || r.size == 0 {
		return nil
	}
	if n > r.size {
		n = r.size
	}
	out := make([]T, n)
	start := r.size - n
	for i := range n {
		out[i] = r.buf[(r.head+start+i)%len(r.buf)]
	}
	return out
}

// Items returns every item, oldest first.
func (r *Ring[T]) Items() []T {
	return r.Last(r.size)
}

// Len returns the number of retained items.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the maximum number of items the ring retains.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Full reports whether the next Push evicts the oldest item.
func (r *Ring[T]) Full() bool { return r.size == len(r.buf) }
