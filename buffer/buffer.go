// File: buffer/buffer.go
// Author: momentics <momentics@gmail.com>
//
// Package buffer implements the scratch message buffer used by the network
// endpoints. A Buffer tracks a position and a limit over a fixed-capacity
// byte region, in the style of a wire-format read/write cursor: fill it up
// to position, Flip it, and the readable view is [0, limit).

package buffer

import "encoding/binary"

// Buffer is a fixed-capacity byte region with a position and a limit.
// It is not safe for concurrent use; every Buffer belongs to exactly one
// endpoint on one dispatch thread.
type Buffer struct {
	data     []byte
	position int
	limit    int
}

// New allocates a Buffer with the given capacity, cleared for writing.
func New(capacity int) *Buffer {
	return &Buffer{
		data:  make([]byte, capacity),
		limit: capacity,
	}
}

// Clear resets the buffer for writing: position 0, limit at capacity.
func (b *Buffer) Clear() {
	b.position = 0
	b.limit = len(b.data)
}

// Flip switches from writing to reading: limit moves to the current
// position, position returns to 0.
func (b *Buffer) Flip() {
	b.limit = b.position
	b.position = 0
}

// Skip advances the position by n bytes.
func (b *Buffer) Skip(n int) {
	b.position += n
}

// Position returns the current position.
func (b *Buffer) Position() int { return b.position }

// SetPosition moves the cursor to pos.
func (b *Buffer) SetPosition(pos int) { b.position = pos }

// Limit returns the current limit.
func (b *Buffer) Limit() int { return b.limit }

// SetLimit lowers (or restores) the limit. The position is clipped to it.
func (b *Buffer) SetLimit(limit int) {
	b.limit = limit
	if b.position > limit {
		b.position = limit
	}
}

// Capacity returns the size of the underlying region.
func (b *Buffer) Capacity() int { return len(b.data) }

// Remaining returns the bytes left between position and limit.
func (b *Buffer) Remaining() int { return b.limit - b.position }

// Begin returns the region from the start up to the limit.
func (b *Buffer) Begin() []byte { return b.data[:b.limit] }

// Current returns the region between position and limit.
func (b *Buffer) Current() []byte { return b.data[b.position:b.limit] }

// At returns the region from offset i up to the limit.
func (b *Buffer) At(i int) []byte { return b.data[i:b.limit] }

// Bytes returns the whole underlying region regardless of limit.
func (b *Buffer) Bytes() []byte { return b.data }

// ReadU16At decodes a big-endian uint16 at offset i.
func (b *Buffer) ReadU16At(i int) uint16 {
	return binary.BigEndian.Uint16(b.data[i:])
}

// WriteU16At encodes v big-endian at offset i.
func (b *Buffer) WriteU16At(i int, v uint16) {
	binary.BigEndian.PutUint16(b.data[i:], v)
}

// Write copies p at the current position and advances it.
func (b *Buffer) Write(p []byte) int {
	n := copy(b.data[b.position:b.limit], p)
	b.position += n
	return n
}
