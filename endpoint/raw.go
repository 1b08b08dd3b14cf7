//go:build linux || darwin

// File: endpoint/raw.go
// Author: momentics <momentics@gmail.com>

package endpoint

import "github.com/momentics/hioload-dns/reactor"

// NewRaw creates a bufferless endpoint over a caller-owned descriptor
// that only relays readiness: the callback fires with NoError when the
// chosen direction is ready, or Timeout when an armed deadline expires.
// The caller performs its own I/O on the descriptor.
func NewRaw(base *reactor.Base, fd int, writing bool, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	c := newEndpoint(base, KindRaw, opts)
	c.fd = fd
	c.callback = cb
	c.cbArg = arg
	c.doNotClose = true
	c.handle = base.NewHandle(c.rawEvent)
	c.handle.SetFD(fd)
	if writing {
		c.handle.SetEvents(reactor.EventWrite)
	} else {
		c.handle.SetEvents(reactor.EventRead)
	}
	if err := c.handle.Arm(0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Endpoint) rawEvent(ev reactor.EventType) {
	status := NoError
	if ev&reactor.EventTimeout != 0 {
		status = Timeout
	}
	c.callback(c, c.cbArg, status, nil)
}
