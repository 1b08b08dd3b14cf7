//go:build linux || darwin

// File: endpoint/addr.go
// Author: momentics <momentics@gmail.com>

package endpoint

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// sockaddrString renders a peer address for log output.
func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)).String()
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr), uint16(a.Port)).String()
	case *unix.SockaddrUnix:
		return a.Name
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", sa)
}
