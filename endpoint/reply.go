//go:build linux || darwin

// File: endpoint/reply.go
// Author: momentics <momentics@gmail.com>

package endpoint

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// SrcFamily discriminates the captured ancillary source information.
type SrcFamily int

const (
	// SrcNone means no ancillary info was captured for the datagram.
	SrcNone SrcFamily = iota
	// Src4 carries IPv4 packet info.
	Src4
	// Src6 carries IPv6 packet info.
	Src6
)

// PktInfo is the local addressing a datagram arrived on, recovered from
// ancillary control data. It is echoed back verbatim on the reply so the
// response egresses from the same local address and interface.
type PktInfo struct {
	Family  SrcFamily
	Ifindex uint32
	// Dst is the local address the datagram was sent to.
	Dst netip.Addr
}

// Reply is the reusable per-endpoint reply context handed to callbacks.
// It is valid only for the duration of the callback plus an immediate
// SendReply/DropReply; endpoints overwrite it on the next event.
type Reply struct {
	// Endpoint that produced the event.
	Endpoint *Endpoint
	// Addr is the peer address (UDP source, or accepted TCP peer).
	Addr unix.Sockaddr
	// Src is the ancillary info for UDPAncil endpoints, SrcNone otherwise.
	Src PktInfo
}

func (r *Reply) clearSrc() {
	r.Src = PktInfo{}
}
