package core

// buffer.go provides the growable array used to collect the fields of a row.
//
// CSV files almost always have the same number of columns on every line, so
// the buffer keeps its backing array between rows. After the first few rows
// of a stable-width file no further allocations happen.

// GrowBy is the number of slots added each time a GrowableBuffer runs out of room.
const GrowBy = 10

// GrowableBuffer is an append-only array that grows in fixed increments and
// is reused across rows.
type GrowableBuffer[T any] struct {
	items []T
	count int
	grows int
}

// NewGrowableBuffer creates a buffer with the given initial capacity.
// A non-positive capacity falls back to GrowBy.
func NewGrowableBuffer[T any](capacity int) *GrowableBuffer[T] {
	if capacity <= 0 {
		capacity = GrowBy
	}
	return &GrowableBuffer[T]{items: make([]T, capacity)}
}

// Append adds an item, growing the backing array by GrowBy when it is full.
func (b *GrowableBuffer[T]) Append(item T) {
	if b.count >= len(b.items) {
		grown := make([]T, b.count+GrowBy)
		copy(grown, b.items[:b.count])
		b.items = grown
		b.grows++
	}
	b.items[b.count] = item
	b.count++
}

// Len returns the number of items appended since the last Finalize.
func (b *GrowableBuffer[T]) Len() int {
	return b.count
}

// Cap returns the size of the backing array.
func (b *GrowableBuffer[T]) Cap() int {
	return len(b.items)
}

// Grows returns how many times the backing array has been reallocated.
func (b *GrowableBuffer[T]) Grows() int {
	return b.grows
}

// Finalize returns the appended items as a slice of exact length and resets
// the buffer for the next row. The backing array is kept, so the returned
// slice is only valid until the next Append. Its capacity is clipped so that
// appending to it never writes into the buffer.
func (b *GrowableBuffer[T]) Finalize() []T {
	result := b.items[:b.count:b.count]
	b.count = 0
	return result
}

// Reset discards appended items without returning them.
func (b *GrowableBuffer[T]) Reset() {
	b.count = 0
}
