// Package writebuf implements the growable write buffer used while
// serializing an object for hashing and persistence.
package writebuf

import "fmt"

// initialCapacity is the size the buffer starts at before anything
// has been written to it.
const initialCapacity = 4096

// Buffer is a byte buffer that grows geometrically: it starts at
// initialCapacity and doubles every time a write would overflow it.
// Unlike bytes.Buffer it never shrinks and exposes its current
// capacity (Cap).
type Buffer struct {
	data []byte
}

// New returns an empty Buffer with the default initial capacity.
func New() *Buffer {
	return &Buffer{data: make([]byte, 0, initialCapacity)}
}

// Write appends p to the buffer, growing it (doubling capacity until
// it fits) if necessary.
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.ensure(len(p))
	b.data = append(b.data, p...)
	return len(p), nil
}

// Printf formats according to format and appends the result to the
// buffer. fmt.Sprintf always computes the exact formatted length
// before returning, so Printf never needs a guess-then-retry dance:
// Write's own ensure() loop already grows to fit whatever comes back.
func (b *Buffer) Printf(format string, args ...interface{}) {
	b.Write([]byte(fmt.Sprintf(format, args...))) //nolint:errcheck // Write never fails
}

// ensure grows the buffer's capacity, doubling it as many times as
// needed, until it can hold extra additional bytes without
// reallocating mid-append.
func (b *Buffer) ensure(extra int) {
	need := len(b.data) + extra
	cap := cap(b.data)
	if need <= cap {
		return
	}
	for cap < need {
		cap *= 2
	}
	grown := make([]byte, len(b.data), cap)
	copy(grown, b.data)
	b.data = grown
}

// Bytes returns the buffer's current content. The returned slice
// aliases the buffer's internal storage and must not be retained
// across a subsequent Write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes currently held in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the buffer's current capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Reset empties the buffer without releasing its capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}
