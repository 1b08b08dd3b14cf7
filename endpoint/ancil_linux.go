//go:build linux

// File: endpoint/ancil_linux.go
// Author: momentics <momentics@gmail.com>
//
// Ancillary-aware UDP. Each receive parses control data to recover the
// local address and interface the datagram arrived on; the reply echoes
// that info so the response egresses from the same address.

package endpoint

import (
	"net/netip"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
	"github.com/momentics/hioload-dns/reactor"
)

const ancilSize = 256

// NewUDPAncil creates a UDP endpoint that tracks per-datagram interface
// and destination-address info. The socket must have IP_PKTINFO and/or
// IPV6_RECVPKTINFO enabled by the caller.
func NewUDPAncil(base *reactor.Base, fd int, buf *buffer.Buffer, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	c := newEndpoint(base, KindUDPAncil, opts)
	c.fd = fd
	c.buf = buf
	c.callback = cb
	c.cbArg = arg
	c.ancil = make([]byte, ancilSize)
	c.handle = base.NewHandle(c.udpAncilEvent)
	c.handle.SetFD(fd)
	c.handle.SetEvents(reactor.EventRead)
	if fd != -1 {
		if err := c.handle.Arm(0); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Endpoint) udpAncilEvent(ev reactor.EventType) {
	if ev&reactor.EventRead == 0 {
		return
	}
	fd := c.fd
	for i := 0; i < c.udpBatch; i++ {
		c.buf.Clear()
		n, oobn, _, from, err := unix.Recvmsg(fd, c.buf.Bytes(), c.ancil, 0)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EINTR {
				c.logger.Error("recvmsg failed",
					zap.Int("fd", fd), zap.Error(err))
			}
			return
		}
		c.metrics.incIn()
		c.rep.Addr = from
		c.rep.Src = parsePktInfo(c.ancil[:oobn])
		c.logDatagramSrc("receive_udp on interface", &c.rep.Src)
		c.buf.Skip(n)
		c.buf.Flip()
		if c.callback(c, c.cbArg, NoError, &c.rep) {
			c.sendUDPIf(c.buf, from, &c.rep.Src)
		}
		if c.fd != fd {
			break
		}
	}
}

// parsePktInfo extracts IP_PKTINFO/IPV6_PKTINFO from control data.
func parsePktInfo(oob []byte) PktInfo {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return PktInfo{}
	}
	for _, m := range msgs {
		switch {
		case m.Header.Level == unix.IPPROTO_IPV6 &&
			m.Header.Type == unix.IPV6_PKTINFO &&
			len(m.Data) >= unix.SizeofInet6Pktinfo:
			info := (*unix.Inet6Pktinfo)(unsafe.Pointer(&m.Data[0]))
			return PktInfo{
				Family:  Src6,
				Ifindex: info.Ifindex,
				Dst:     netip.AddrFrom16(info.Addr),
			}
		case m.Header.Level == unix.IPPROTO_IP &&
			m.Header.Type == unix.IP_PKTINFO &&
			len(m.Data) >= unix.SizeofInet4Pktinfo:
			info := (*unix.Inet4Pktinfo)(unsafe.Pointer(&m.Data[0]))
			return PktInfo{
				Family:  Src4,
				Ifindex: uint32(info.Ifindex),
				Dst:     netip.AddrFrom4(info.Addr),
			}
		}
	}
	return PktInfo{}
}

// sendUDPIf transmits the buffer over the captured interface by echoing
// the packet info back to the kernel. Without captured info it passes a
// zeroed v6 pktinfo so the default route applies.
func (c *Endpoint) sendUDPIf(buf *buffer.Buffer, to unix.Sockaddr, src *PktInfo) bool {
	if c.fd == -1 || to == nil {
		return false
	}
	var oob []byte
	switch src.Family {
	case Src4:
		a := src.Dst.As4()
		oob = unix.PktInfo4(&unix.Inet4Pktinfo{
			Ifindex:  int32(src.Ifindex),
			Spec_dst: a,
			Addr:     a,
		})
	case Src6:
		oob = unix.PktInfo6(&unix.Inet6Pktinfo{
			Addr:    src.Dst.As16(),
			Ifindex: src.Ifindex,
		})
	default:
		oob = unix.PktInfo6(&unix.Inet6Pktinfo{})
	}
	c.logDatagramSrc("send_udp over interface", src)
	sent, err := unix.SendmsgN(c.fd, buf.Current(), oob, to, 0)
	if err != nil {
		c.logger.Warn("sendmsg failed",
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

func (c *Endpoint) logDatagramSrc(msg string, src *PktInfo) {
	if src.Family == SrcNone {
		return
	}
	c.logger.Debug(msg,
		zap.Uint32("ifindex", src.Ifindex),
		zap.Stringer("dst", src.Dst))
}
