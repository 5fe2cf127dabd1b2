// Package ringbuf provides a fixed-capacity ring buffer used for bounded
// history windows.
package ringbuf

// Ring keeps the most recent capacity values; older values are overwritten.
// It is not safe for concurrent use.
type Ring[T any] struct {
	data  []T
	start int
	size  int
}

// New creates a ring with the given capacity. Capacity below 1 is raised to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when full.
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.data) {
		r.data[(r.start+r.size)%len(r.data)] = v
		r.size++
		return
	}
	r.data[r.start] = v
	r.start = (r.start + 1) % len(r.data)
}

// Len returns the number of stored values.
func (r *Ring[T]) Len() int { return r.size }

// Values returns the stored values from oldest to newest.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.data[(r.start+i)%len(r.data)]
	}
	return out
}
