//go:build linux || darwin

// File: endpoint/udp.go
// Author: momentics <momentics@gmail.com>
//
// Datagram endpoints. Each readiness notification drains up to the batch
// limit of datagrams; the loop ends early when a receive would block, a
// receive fails, or the callback closed/rebound the descriptor.

package endpoint

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
	"github.com/momentics/hioload-dns/reactor"
)

// NewUDP creates a plain UDP endpoint over a pre-opened nonblocking
// descriptor (or -1 to bind later via StartListening). The buffer is
// caller-owned and shared with the callback.
func NewUDP(base *reactor.Base, fd int, buf *buffer.Buffer, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	c := newEndpoint(base, KindUDP, opts)
	c.fd = fd
	c.buf = buf
	c.callback = cb
	c.cbArg = arg
	c.handle = base.NewHandle(c.udpEvent)
	c.handle.SetFD(fd)
	c.handle.SetEvents(reactor.EventRead)
	if fd != -1 {
		if err := c.handle.Arm(0); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Endpoint) udpEvent(ev reactor.EventType) {
	if ev&reactor.EventRead == 0 {
		return
	}
	fd := c.fd
	for i := 0; i < c.udpBatch; i++ {
		c.buf.Clear()
		n, from, err := unix.Recvfrom(fd, c.buf.Bytes(), 0)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EINTR {
				c.logger.Error("recvfrom failed",
					zap.Int("fd", fd), zap.Error(err))
			}
			return
		}
		c.metrics.incIn()
		c.rep.Addr = from
		c.rep.clearSrc()
		c.buf.Skip(n)
		c.buf.Flip()
		if c.callback(c, c.cbArg, NoError, &c.rep) {
			c.sendUDP(c.buf, from)
		}
		if c.fd != fd {
			// Callback closed the endpoint or rebound it to another
			// port; stop draining the old descriptor.
			break
		}
	}
}

// sendUDP transmits the buffer's remaining bytes as one datagram. A short
// write is fatal for the send: datagrams are atomic, so partial delivery
// means the OS misbehaved and the reply is dropped, not retried.
func (c *Endpoint) sendUDP(buf *buffer.Buffer, to unix.Sockaddr) bool {
	if c.fd == -1 || to == nil {
		return false
	}
	sent, err := unix.SendmsgN(c.fd, buf.Current(), nil, to, 0)
	if err != nil {
		// Unreachable destinations are routine client-side noise;
		// keep them off the operational log.
		if err == unix.ENETUNREACH || err == unix.EPERM {
			c.logger.Debug("sendto failed", zap.Int("fd", c.fd), zap.Error(err))
			return false
		}
		c.logger.Warn("sendto failed",
			zap.Int("fd", c.fd),
			zap.String("raddr", sockaddrString(to)),
			zap.Error(err))
		c.metrics.incSendErr()
		return false
	}
	if sent != buf.Remaining() {
		c.logger.Error("short udp send",
			zap.Int("sent", sent), zap.Int("want", buf.Remaining()))
		c.metrics.incSendErr()
		return false
	}
	c.metrics.incOut()
	return true
}
