// File: buffer/pool.go
// Author: momentics <momentics@gmail.com>

package buffer

import "sync"

// Pool recycles equally-sized Buffers. Endpoints that come and go (outbound
// TCP handlers, short-lived workers) draw from a Pool instead of allocating.
type Pool struct {
	size int
	pool *sync.Pool
}

// NewPool creates a Pool handing out Buffers of the given capacity.
func NewPool(size int) *Pool {
	return &Pool{
		size: size,
		pool: &sync.Pool{New: func() any { return New(size) }},
	}
}

// Get returns a cleared Buffer from the pool.
func (p *Pool) Get() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.Clear()
	return b
}

// Put returns a Buffer to the pool. The Buffer must not be used afterwards.
func (p *Pool) Put(b *Buffer) {
	if b == nil || b.Capacity() != p.size {
		return
	}
	p.pool.Put(b)
}
