//go:build linux || darwin

// File: endpoint/local.go
// Author: momentics <momentics@gmail.com>

package endpoint

import (
	"github.com/momentics/hioload-dns/buffer"
	"github.com/momentics/hioload-dns/reactor"
)

// NewLocal creates a stream endpoint over a caller-owned local (unix
// domain or pipe) descriptor. It reads length-prefixed frames like a TCP
// handler but permits frames below the protocol minimum, never toggles
// into a write phase, and never closes the descriptor.
func NewLocal(base *reactor.Base, fd int, buf *buffer.Buffer, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	c := newEndpoint(base, KindLocal, opts)
	c.fd = fd
	c.buf = buf
	c.callback = cb
	c.cbArg = arg
	c.tcpIsReading = true
	c.shortOK = true
	c.doNotClose = true
	c.handle = base.NewHandle(c.localEvent)
	c.handle.SetFD(fd)
	c.handle.SetEvents(reactor.EventRead)
	if err := c.handle.Arm(0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Endpoint) localEvent(ev reactor.EventType) {
	if ev&reactor.EventRead == 0 {
		return
	}
	if !c.handleTCPRead() {
		// The peer went away; the owner decides whether to rebind.
		c.callback(c, c.cbArg, Closed, nil)
	}
}
