//go:build darwin

// File: endpoint/ancil_other.go
// Author: momentics <momentics@gmail.com>
//
// Disabled ancillary variant for platforms without usable pktinfo
// handling. Plain UDP endpoints remain fully functional.

package endpoint

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
	"github.com/momentics/hioload-dns/reactor"
)

// ErrAncillaryUnsupported is returned by NewUDPAncil where interface
// tracking is not available. Callers should fall back to NewUDP or bind
// one socket per address.
var ErrAncillaryUnsupported = errors.New("endpoint: ancillary packet info not supported on this platform")

// NewUDPAncil is unavailable here.
func NewUDPAncil(base *reactor.Base, fd int, buf *buffer.Buffer, cb Callback, arg any, opts ...Option) (*Endpoint, error) {
	return nil, ErrAncillaryUnsupported
}

// sendUDPIf falls back to a plain send; Src is never populated on this
// platform.
func (c *Endpoint) sendUDPIf(buf *buffer.Buffer, to unix.Sockaddr, src *PktInfo) bool {
	return c.sendUDP(buf, to)
}
