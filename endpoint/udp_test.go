//go:build linux || darwin

// File: endpoint/udp_test.go
// Author: momentics <momentics@gmail.com>

package endpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
)

// openUDPPair returns a nonblocking server socket bound on loopback and a
// blocking client socket with a receive timeout, already connected-less
// but aware of the server's address.
func openUDPPair(t *testing.T) (int, int, unix.Sockaddr) {
	t.Helper()
	srv, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(srv, true))
	require.NoError(t, unix.Bind(srv, &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}))
	srvAddr, err := unix.Getsockname(srv)
	require.NoError(t, err)

	cli, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	require.NoError(t, err)
	tv := unix.NsecToTimeval(int64(3 * time.Second))
	require.NoError(t, unix.SetsockoptTimeval(cli, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv))
	t.Cleanup(func() { unix.Close(cli) })
	return srv, cli, srvAddr
}

func TestUDPEchoRoundTrip(t *testing.T) {
	b := newTestBase(t)
	srv, cli, srvAddr := openUDPPair(t)

	var gotAddr unix.Sockaddr
	cb := func(c *Endpoint, arg any, status Status, rep *Reply) bool {
		gotAddr = rep.Addr
		return true
	}
	ep, err := NewUDP(b, srv, buffer.New(512), cb, nil)
	require.NoError(t, err)

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.Delete)

	require.NoError(t, unix.Sendto(cli, []byte("ping over udp"), 0, srvAddr))

	reply := make([]byte, 512)
	n, _, err := unix.Recvfrom(cli, reply, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("ping over udp"), reply[:n])
	require.NotNil(t, gotAddr)
}

func TestUDPCallbackDeclinesReply(t *testing.T) {
	b := newTestBase(t)
	srv, cli, srvAddr := openUDPPair(t)

	seen := make(chan []byte, 1)
	cb := func(c *Endpoint, arg any, status Status, rep *Reply) bool {
		seen <- append([]byte(nil), c.Buffer().Current()...)
		return false
	}
	ep, err := NewUDP(b, srv, buffer.New(512), cb, nil)
	require.NoError(t, err)

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.Delete)

	require.NoError(t, unix.Sendto(cli, []byte("no reply wanted"), 0, srvAddr))

	select {
	case got := <-seen:
		require.Equal(t, []byte("no reply wanted"), got)
	case <-time.After(3 * time.Second):
		t.Fatal("datagram never delivered")
	}
}

func TestUDPServesBurst(t *testing.T) {
	b := newTestBase(t)
	srv, cli, srvAddr := openUDPPair(t)

	ep, err := NewUDP(b, srv, buffer.New(512), echo, nil, WithUDPBatch(4))
	require.NoError(t, err)

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.Delete)

	msgs := [][]byte{
		[]byte("first"), []byte("second"), []byte("third"),
		[]byte("fourth"), []byte("fifth"),
	}
	for _, m := range msgs {
		require.NoError(t, unix.Sendto(cli, m, 0, srvAddr))
	}

	got := map[string]bool{}
	reply := make([]byte, 512)
	for range msgs {
		n, _, err := unix.Recvfrom(cli, reply, 0)
		require.NoError(t, err)
		got[string(reply[:n])] = true
	}
	for _, m := range msgs {
		require.True(t, got[string(m)], "missing reply %q", m)
	}
}

func TestUDPSendReply(t *testing.T) {
	b := newTestBase(t)
	srv, cli, srvAddr := openUDPPair(t)

	// Decline the immediate reply, then answer explicitly via SendReply
	// the way an asynchronous resolver path would.
	cb := func(c *Endpoint, arg any, status Status, rep *Reply) bool {
		c.Buffer().Clear()
		c.Buffer().Write([]byte("deferred answer"))
		c.Buffer().Flip()
		c.SendReply(rep)
		return false
	}
	ep, err := NewUDP(b, srv, buffer.New(512), cb, nil)
	require.NoError(t, err)

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.Delete)

	require.NoError(t, unix.Sendto(cli, []byte("question"), 0, srvAddr))

	reply := make([]byte, 512)
	n, _, err := unix.Recvfrom(cli, reply, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("deferred answer"), reply[:n])
}
