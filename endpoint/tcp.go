//go:build linux || darwin

// File: endpoint/tcp.go
// Author: momentics <momentics@gmail.com>
//
// Stream endpoints. A listener owns a fixed pool of handler endpoints;
// accepting pops a handler, exhausting the pool suspends the listener,
// and reclaiming a handler re-enables it. Handlers run a half-duplex
// read/write state machine over 2-byte length-prefixed frames.

package endpoint

import (
	"encoding/binary"
	"fmt"

	temperrcatcher "github.com/jbenet/go-temp-err-catcher"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
	"github.com/momentics/hioload-dns/reactor"
)

// NewTCP creates a listening stream endpoint over a pre-opened
// nonblocking listening descriptor, with numHandlers pooled connection
// handlers each carrying its own bufsize-byte message buffer.
func NewTCP(base *reactor.Base, fd, numHandlers, bufsize int, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	if numHandlers <= 0 {
		return nil, fmt.Errorf("endpoint: tcp listener needs at least one handler, got %d", numHandlers)
	}
	l := newEndpoint(base, KindTCPAccept, opts)
	l.fd = fd
	l.handlers = make([]*Endpoint, numHandlers)
	l.freeSlots = make([]int, 0, numHandlers)
	for i := range l.handlers {
		h := newEndpoint(base, KindTCPHandler, opts)
		h.buf = buffer.New(bufsize)
		h.callback = cb
		h.cbArg = arg
		h.parent = l
		h.slot = i
		h.tcpIsReading = true
		h.tcpDoToggleRW = true
		h.handle = base.NewHandle(h.tcpHandleEvent)
		l.handlers[i] = h
		l.freeSlots = append(l.freeSlots, i)
	}
	l.handle = base.NewHandle(l.tcpAcceptEvent)
	l.handle.SetFD(fd)
	l.handle.SetEvents(reactor.EventRead)
	if fd != -1 {
		if err := l.handle.Arm(0); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// NewTCPOut creates an outbound stream endpoint for a nonblocking
// connect in progress. It starts in the write phase and probes the
// connect result on first writability; bind the connecting descriptor
// with StartListening.
func NewTCPOut(base *reactor.Base, bufsize int, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	c := newEndpoint(base, KindTCPHandler, opts)
	c.buf = buffer.New(bufsize)
	c.callback = cb
	c.cbArg = arg
	c.tcpIsReading = false
	c.tcpDoToggleRW = true
	c.tcpCheckNBConnect = true
	c.handle = base.NewHandle(c.tcpHandleEvent)
	c.handle.SetEvents(reactor.EventWrite)
	return c, nil
}

// acceptTransient reports whether an accept failure is routine enough to
// retry on the next readiness notification.
func acceptTransient(err error) bool {
	return temperrcatcher.ErrIsTemporary(err) ||
		err == unix.EINTR || err == unix.EAGAIN ||
		err == unix.EWOULDBLOCK || err == unix.ECONNABORTED ||
		err == unix.EPROTO
}

func (c *Endpoint) tcpAcceptEvent(ev reactor.EventType) {
	if ev&reactor.EventRead == 0 {
		return
	}
	if len(c.freeSlots) == 0 {
		// Spurious wakeup with no handler to give; StartListening
		// suspends the listener in this state so this should not recur.
		c.logger.Debug("accepted too many tcp, connections full",
			zap.Int("fd", c.fd))
		c.StopListening()
		return
	}
	nfd, sa, err := unix.Accept(c.fd)
	if err != nil {
		if !acceptTransient(err) {
			c.logger.Error("accept failed", zap.Int("fd", c.fd), zap.Error(err))
		}
		return
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		c.logger.Error("could not set accepted fd nonblocking", zap.Error(err))
		unix.Close(nfd)
		return
	}
	unix.CloseOnExec(nfd)

	idx := c.freeSlots[len(c.freeSlots)-1]
	c.freeSlots = c.freeSlots[:len(c.freeSlots)-1]
	if len(c.freeSlots) == 0 {
		c.StopListening()
	}
	h := c.handlers[idx]
	h.rep.Addr = sa
	h.rep.clearSrc()
	h.suppressNotify = false
	h.setupTCP(nfd)
	c.metrics.incAccepted()
	c.logger.Debug("accepted tcp",
		zap.Int("fd", nfd), zap.String("raddr", sockaddrString(sa)))
}

// setupTCP moves a handler into the read phase over a fresh descriptor.
func (c *Endpoint) setupTCP(nfd int) {
	c.buf.Clear()
	c.tcpIsReading = true
	c.tcpByteCount = 0
	c.StartListening(nfd, c.queryTimeout)
}

// reclaim returns a handler to its listener's pool, closing the
// connection. Reclaiming into an empty pool re-enables the listener.
func (c *Endpoint) reclaim() {
	c.Close()
	c.metrics.incReclaimed()
	p := c.parent
	if p == nil {
		return
	}
	wasEmpty := len(p.freeSlots) == 0
	p.freeSlots = append(p.freeSlots, c.slot)
	if wasEmpty {
		p.StartListening(-1, KeepTimeout)
	}
}

// dropNotify reclaims the handler and reports the failure upward unless
// the owner asked for silence.
func (c *Endpoint) dropNotify(status Status) {
	c.reclaim()
	if !c.suppressNotify {
		c.callback(c, c.cbArg, status, nil)
	}
}

func (c *Endpoint) tcpHandleEvent(ev reactor.EventType) {
	if ev&reactor.EventTimeout != 0 {
		c.logger.Debug("tcp took too long, dropped",
			zap.Int("fd", c.fd), zap.String("raddr", sockaddrString(c.rep.Addr)))
		c.metrics.incTimeout()
		c.dropNotify(Timeout)
		return
	}
	if ev&reactor.EventRead != 0 {
		if !c.handleTCPRead() {
			c.dropNotify(Closed)
		}
		return
	}
	if ev&reactor.EventWrite != 0 {
		if !c.handleTCPWrite() {
			c.dropNotify(Closed)
		}
	}
}

// handleTCPRead advances the read phase. It returns false when the
// connection must be dropped; true means progress was made or the call
// would block.
func (c *Endpoint) handleTCPRead() bool {
	if c.tcpByteCount < prefixSize {
		n, err := unix.Read(c.fd, c.buf.Bytes()[c.tcpByteCount:prefixSize])
		if err != nil {
			return c.readErr(err)
		}
		if n == 0 {
			// Remote closed before sending a full length prefix.
			return false
		}
		c.tcpByteCount += n
		if c.tcpByteCount < prefixSize {
			return true
		}
		msglen := int(c.buf.ReadU16At(0))
		if msglen > c.buf.Capacity() {
			c.logger.Debug("frame too large, dropped",
				zap.Int("msglen", msglen), zap.Int("cap", c.buf.Capacity()),
				zap.String("raddr", sockaddrString(c.rep.Addr)))
			return false
		}
		if !c.shortOK && msglen < MinMessageSize {
			c.logger.Debug("frame too short, dropped",
				zap.Int("msglen", msglen),
				zap.String("raddr", sockaddrString(c.rep.Addr)))
			return false
		}
		c.buf.SetLimit(msglen)
		if c.buf.Remaining() == 0 {
			// Empty frame, legal only where short frames are.
			c.tcpCallbackReader()
			return true
		}
	}
	n, err := unix.Read(c.fd, c.buf.Current())
	if err != nil {
		return c.readErr(err)
	}
	if n == 0 {
		return false
	}
	c.buf.Skip(n)
	c.tcpByteCount += n
	if c.buf.Remaining() > 0 {
		return true
	}
	c.tcpCallbackReader()
	return true
}

func (c *Endpoint) readErr(err error) bool {
	if err == unix.EINTR || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return true
	}
	if err == unix.ECONNRESET {
		c.logger.Debug("read: connection reset",
			zap.Int("fd", c.fd), zap.String("raddr", sockaddrString(c.rep.Addr)))
		return false
	}
	c.logger.Warn("tcp read failed",
		zap.Int("fd", c.fd),
		zap.String("raddr", sockaddrString(c.rep.Addr)),
		zap.Error(err))
	return false
}

// tcpCallbackReader delivers the completed frame and, when the callback
// asks for a reply, flips the handler into the write phase.
func (c *Endpoint) tcpCallbackReader() {
	c.buf.Flip()
	if c.tcpDoToggleRW {
		c.tcpIsReading = false
	}
	c.tcpByteCount = 0
	if c.kind == KindTCPHandler {
		c.StopListening()
	}
	if c.callback(c, c.cbArg, NoError, &c.rep) {
		c.StartListening(-1, c.queryTimeout)
	}
}

// handleTCPWrite advances the write phase: probe a pending nonblocking
// connect, push the length prefix together with the first payload bytes
// in one writev, then stream the rest.
func (c *Endpoint) handleTCPWrite() bool {
	if c.tcpByteCount == 0 && c.tcpCheckNBConnect {
		soErr, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			c.logger.Warn("getsockopt SO_ERROR failed", zap.Int("fd", c.fd), zap.Error(err))
			return false
		}
		switch unix.Errno(soErr) {
		case 0:
			// Connect completed.
		case unix.EINPROGRESS, unix.EWOULDBLOCK:
			// Not done yet; wait for the next writability event.
			return true
		case unix.ECONNREFUSED, unix.EHOSTUNREACH, unix.EHOSTDOWN:
			c.logger.Debug("tcp connect failed",
				zap.String("raddr", sockaddrString(c.rep.Addr)),
				zap.Error(unix.Errno(soErr)))
			return false
		default:
			c.logger.Error("tcp connect failed",
				zap.String("raddr", sockaddrString(c.rep.Addr)),
				zap.Error(unix.Errno(soErr)))
			return false
		}
	}
	if c.tcpByteCount < prefixSize {
		if c.buf.Limit() > 0xFFFF {
			// Cannot be represented in the length prefix.
			c.logger.Error("reply exceeds frame length field, dropped",
				zap.Int("len", c.buf.Limit()))
			return false
		}
		var pre [prefixSize]byte
		binary.BigEndian.PutUint16(pre[:], uint16(c.buf.Limit()))
		n, err := unix.Writev(c.fd, [][]byte{pre[c.tcpByteCount:], c.buf.Begin()})
		if err != nil {
			return c.writeErr(err)
		}
		c.tcpByteCount += n
		if c.tcpByteCount < prefixSize {
			return true
		}
		c.buf.SetPosition(c.tcpByteCount - prefixSize)
		if c.buf.Remaining() == 0 {
			c.tcpCallbackWriter()
			return true
		}
	}
	n, err := unix.Write(c.fd, c.buf.Current())
	if err != nil {
		return c.writeErr(err)
	}
	c.buf.Skip(n)
	c.tcpByteCount += n
	if c.buf.Remaining() == 0 {
		c.tcpCallbackWriter()
	}
	return true
}

func (c *Endpoint) writeErr(err error) bool {
	if err == unix.EINTR || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return true
	}
	if err == unix.EPIPE || err == unix.ECONNRESET {
		c.logger.Debug("write: connection closed by peer",
			zap.Int("fd", c.fd), zap.String("raddr", sockaddrString(c.rep.Addr)))
		return false
	}
	c.logger.Warn("tcp write failed",
		zap.Int("fd", c.fd),
		zap.String("raddr", sockaddrString(c.rep.Addr)),
		zap.Error(err))
	return false
}

// tcpCallbackWriter finishes the reply and returns the handler to the
// read phase with no deadline armed; the next inbound frame starts a
// fresh timed transfer.
func (c *Endpoint) tcpCallbackWriter() {
	c.buf.Clear()
	if c.tcpDoToggleRW {
		c.tcpIsReading = true
	}
	c.tcpByteCount = 0
	if c.kind == KindTCPHandler {
		c.StopListening()
		c.StartListening(-1, 0)
	}
}
