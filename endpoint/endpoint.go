//go:build linux || darwin

// File: endpoint/endpoint.go
// Author: momentics <momentics@gmail.com>
//
// Endpoint core: kinds, status codes, the callback contract and the
// control operations shared by every endpoint type.

package endpoint

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
	"github.com/momentics/hioload-dns/reactor"
)

// Kind tags the per-type behavior of an Endpoint.
type Kind int

const (
	// KindUDP is a plain datagram endpoint.
	KindUDP Kind = iota
	// KindUDPAncil is a datagram endpoint capturing interface/source info.
	KindUDPAncil
	// KindTCPAccept is a listening socket owning a pool of handlers.
	KindTCPAccept
	// KindTCPHandler is one pooled (or outbound) stream connection.
	KindTCPHandler
	// KindLocal is a stream IPC endpoint allowing short frames.
	KindLocal
	// KindRaw is a bufferless descriptor that only relays readiness.
	KindRaw
)

// Status reports why the callback fired.
type Status int

const (
	// NoError: a complete message is in the endpoint's buffer.
	NoError Status = iota
	// Closed: the peer disconnected or the transfer failed.
	Closed
	// Timeout: the armed deadline expired mid-transfer.
	Timeout
)

func (s Status) String() string {
	switch s {
	case NoError:
		return "noerror"
	case Closed:
		return "closed"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Callback reacts to a completed event. Returning true means "send an
// immediate reply from the endpoint's buffer using rep's addressing, then
// keep listening"; false releases or idles the endpoint.
type Callback func(c *Endpoint, arg any, status Status, rep *Reply) bool

// KeepTimeout leaves an endpoint's armed timeout unchanged when passed to
// StartListening. A zero timeout means "none".
const KeepTimeout = time.Duration(-1)

const (
	// DefaultTCPTimeout bounds one TCP query/transfer.
	DefaultTCPTimeout = 120 * time.Second
	// DefaultUDPBatch is the number of datagrams handled per readiness
	// notification.
	DefaultUDPBatch = 100
	// MinMessageSize rejects frames below the protocol header size,
	// except on Local endpoints.
	MinMessageSize = 12
	// prefixSize is the big-endian length prefix on stream frames.
	prefixSize = 2
)

// Endpoint is a managed socket with type-specific event handling.
type Endpoint struct {
	base    *reactor.Base
	handle  *reactor.Handle
	logger  *zap.Logger
	metrics *Metrics

	fd   int
	kind Kind
	buf  *buffer.Buffer

	// timeout is the currently configured deadline; zero means none.
	timeout      time.Duration
	queryTimeout time.Duration
	udpBatch     int

	callback Callback
	cbArg    any

	rep Reply

	// accept listener state
	handlers  []*Endpoint
	freeSlots []int

	// handler state
	parent            *Endpoint
	slot              int
	tcpIsReading      bool
	tcpByteCount      int
	tcpDoToggleRW     bool
	tcpCheckNBConnect bool
	doNotClose        bool
	suppressNotify    bool
	shortOK           bool

	ancil []byte
}

func newEndpoint(base *reactor.Base, kind Kind, opts []Option) *Endpoint {
	c := &Endpoint{
		base:         base,
		logger:       zap.NewNop(),
		fd:           -1,
		kind:         kind,
		slot:         -1,
		queryTimeout: DefaultTCPTimeout,
		udpBatch:     DefaultUDPBatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rep.Endpoint = c
	return c
}

// Fd returns the underlying descriptor, or -1 when unbound.
func (c *Endpoint) Fd() int { return c.fd }

// Kind returns the endpoint's type tag.
func (c *Endpoint) Kind() Kind { return c.kind }

// Buffer returns the endpoint's message buffer (nil for listeners and raw
// endpoints).
func (c *Endpoint) Buffer() *buffer.Buffer { return c.buf }

// Base returns the owning reactor base.
func (c *Endpoint) Base() *reactor.Base { return c.base }

// SetCallbackArg rebinds the opaque argument passed to the callback.
func (c *Endpoint) SetCallbackArg(arg any) { c.cbArg = arg }

// SetSuppressNotify controls whether reclaiming this handler skips the
// upward Closed/Timeout callback. Callers that already tore the
// connection down through another path set it to avoid a double
// notification.
func (c *Endpoint) SetSuppressNotify(v bool) { c.suppressNotify = v }

// StartListening (re)arms the endpoint for events. newfd of -1 keeps the
// current descriptor; otherwise the old one is closed and replaced.
// timeout of 0 disarms the deadline, KeepTimeout leaves it as configured.
// A TCP listener with an exhausted handler pool stays suspended.
func (c *Endpoint) StartListening(newfd int, timeout time.Duration) {
	c.logger.Debug("start listening",
		zap.Int("fd", c.fd), zap.Int("newfd", newfd))
	if c.kind == KindTCPAccept && len(c.freeSlots) == 0 {
		// No free handler slots; stay suspended until a reclaim.
		return
	}
	if timeout != KeepTimeout {
		c.timeout = timeout
	}
	if c.kind == KindTCPHandler {
		if c.tcpIsReading {
			c.handle.SetEvents(reactor.EventRead)
		} else {
			c.handle.SetEvents(reactor.EventWrite)
		}
	}
	if newfd != -1 {
		if c.fd != -1 {
			unix.Close(c.fd)
		}
		c.fd = newfd
		c.handle.SetFD(newfd)
	}
	if err := c.handle.Arm(c.timeout); err != nil {
		c.logger.Error("could not arm endpoint", zap.Int("fd", c.fd), zap.Error(err))
	}
}

// StopListening removes the endpoint from the event loop without closing
// anything.
func (c *Endpoint) StopListening() {
	c.logger.Debug("stop listening", zap.Int("fd", c.fd))
	if err := c.handle.Disarm(); err != nil {
		c.logger.Error("could not disarm endpoint", zap.Int("fd", c.fd), zap.Error(err))
	}
}

// ListenForRW rebinds the readiness interest of a stream endpoint to an
// explicit read/write set, keeping the configured timeout armed. Outbound
// handlers use it while juggling pipelined writes with reads.
func (c *Endpoint) ListenForRW(read, write bool) {
	var ev reactor.EventType
	if read {
		ev |= reactor.EventRead
	}
	if write {
		ev |= reactor.EventWrite
	}
	_ = c.handle.Disarm()
	c.handle.SetEvents(ev)
	if err := c.handle.Arm(c.timeout); err != nil {
		c.logger.Error("could not rearm endpoint", zap.Int("fd", c.fd), zap.Error(err))
	}
}

// Close unregisters the endpoint and closes the descriptor unless the
// endpoint was created over a descriptor it does not own. The endpoint
// survives and can be rebound via StartListening.
func (c *Endpoint) Close() {
	if c == nil {
		return
	}
	if c.fd != -1 {
		c.StopListening()
		if !c.doNotClose {
			c.logger.Debug("close fd", zap.Int("fd", c.fd))
			unix.Close(c.fd)
		}
	}
	c.fd = -1
	c.handle.SetFD(-1)
}

// Delete closes the endpoint and, for a listener, recursively deletes
// every pooled handler.
func (c *Endpoint) Delete() {
	if c == nil {
		return
	}
	c.Close()
	for _, h := range c.handlers {
		h.Delete()
	}
	c.handlers = nil
	c.freeSlots = nil
}

// SendReply transmits the endpoint's buffer as a response using rep's
// addressing. Datagram endpoints send immediately; stream handlers switch
// to the write phase under the query timeout.
func (c *Endpoint) SendReply(rep *Reply) {
	switch c.kind {
	case KindUDP:
		c.sendUDP(c.buf, rep.Addr)
	case KindUDPAncil:
		c.sendUDPIf(c.buf, rep.Addr, &rep.Src)
	default:
		c.StartListening(-1, c.queryTimeout)
	}
}

// DropReply abandons a pending reply. Datagram replies are simply not
// sent; a stream handler is forcibly reclaimed into its listener's pool
// without an upward notification.
func (c *Endpoint) DropReply(rep *Reply) {
	if rep == nil {
		return
	}
	if c.kind == KindUDP || c.kind == KindUDPAncil {
		return
	}
	c.reclaim()
}

// MemUsage approximates the memory footprint, including pooled handlers
// and buffer capacity, for diagnostics.
func (c *Endpoint) MemUsage() int {
	if c == nil {
		return 0
	}
	s := 256
	if c.buf != nil {
		s += c.buf.Capacity() + 48
	}
	s += cap(c.ancil)
	s += cap(c.freeSlots) * 8
	for _, h := range c.handlers {
		s += h.MemUsage()
	}
	return s
}

// FreeHandlers reports how many pooled handlers are idle. Zero means the
// listener has suspended its own readiness.
func (c *Endpoint) FreeHandlers() int { return len(c.freeSlots) }
