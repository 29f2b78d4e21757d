// Package ringbuf provides a fixed-capacity ring buffer that silently drops its
// oldest entries once full.
package ringbuf

// Buffer is a bounded LIFO-readable ring. The zero value is not usable; build
// one with New. A Buffer is not safe for concurrent use.
type Buffer[T any] struct {
	slots []T
	start int // index of the logically-oldest element
	count int
}

// New returns an empty buffer holding at most capacity elements. Capacities
// below one are clamped to one.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{slots: make([]T, capacity)}
}

// Len reports the number of stored elements.
func (b *Buffer[T]) Len() int { return b.count }

// Cap reports the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.slots) }

// Append adds v as the newest element. When the buffer is full the oldest
// element is overwritten.
func (b *Buffer[T]) Append(v T) {
	if b.count < len(b.slots) {
		b.slots[(b.start+b.count)%len(b.slots)] = v
		b.count++
		return
	}
	b.slots[b.start] = v
	b.start = (b.start + 1) % len(b.slots)
}

// RemoveLast pops the newest element. ok is false when the buffer is empty.
func (b *Buffer[T]) RemoveLast() (v T, ok bool) {
	if b.count == 0 {
		return v, false
	}
	idx := (b.start + b.count - 1) % len(b.slots)
	v = b.slots[idx]
	var zero T
	b.slots[idx] = zero
	b.count--
	return v, true
}

// Last returns the newest element without removing it.
func (b *Buffer[T]) Last() (v T, ok bool) {
	if b.count == 0 {
		return v, false
	}
	return b.slots[(b.start+b.count-1)%len(b.slots)], true
}

// RemoveAll empties the buffer, keeping its capacity.
func (b *Buffer[T]) RemoveAll() {
	clear(b.slots)
	b.start = 0
	b.count = 0
}

// Items returns a copy of the stored elements, oldest first.
func (b *Buffer[T]) Items() []T {
	if b.count == 0 {
		return nil
	}
	out := make([]T, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.slots[(b.start+i)%len(b.slots)]
	}
	return out
}
