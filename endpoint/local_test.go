//go:build linux || darwin

// File: endpoint/local_test.go
// Author: momentics <momentics@gmail.com>

package endpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-dns/buffer"
)

func streamPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestLocalAcceptsShortFrames(t *testing.T) {
	b := newTestBase(t)
	srv, cli := streamPair(t)

	seen := make(chan []byte, 1)
	cb := func(c *Endpoint, arg any, status Status, rep *Reply) bool {
		if status == NoError {
			seen <- append([]byte(nil), c.Buffer().Current()...)
			// Rewind for the next frame; local endpoints stay in the
			// read phase.
			c.Buffer().Clear()
		}
		return false
	}
	ep, err := NewLocal(b, srv, buffer.New(256), cb, nil)
	require.NoError(t, err)
	require.Equal(t, KindLocal, ep.Kind())

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.Delete)

	// A 3-byte frame, below the minimum a TCP handler would accept.
	_, err = unix.Write(cli, []byte{0x00, 0x03, 'c', 'm', 'd'})
	require.NoError(t, err)

	select {
	case got := <-seen:
		require.Equal(t, []byte("cmd"), got)
	case <-time.After(3 * time.Second):
		t.Fatal("frame never delivered")
	}
}

func TestLocalPeerCloseNotifies(t *testing.T) {
	b := newTestBase(t)
	srv, cli := streamPair(t)

	statuses := make(chan Status, 1)
	cb := func(c *Endpoint, arg any, status Status, rep *Reply) bool {
		if status == Closed {
			// The descriptor stays readable after EOF; the owner must
			// unhook it or the notification repeats.
			c.StopListening()
		}
		statuses <- status
		return false
	}
	ep, err := NewLocal(b, srv, buffer.New(256), cb, nil)
	require.NoError(t, err)

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.StopListening)

	require.NoError(t, unix.Close(cli))

	select {
	case s := <-statuses:
		require.Equal(t, Closed, s)
	case <-time.After(3 * time.Second):
		t.Fatal("no close notification")
	}
}

func TestRawRelaysReadiness(t *testing.T) {
	b := newTestBase(t)
	srv, cli := streamPair(t)

	statuses := make(chan Status, 1)
	cb := func(c *Endpoint, arg any, status Status, rep *Reply) bool {
		// Drain so readiness does not re-fire before the test ends.
		buf := make([]byte, 16)
		unix.Read(c.Fd(), buf)
		statuses <- status
		return false
	}
	ep, err := NewRaw(b, srv, false, cb, nil)
	require.NoError(t, err)
	require.Equal(t, KindRaw, ep.Kind())
	require.Nil(t, ep.Buffer())

	done := dispatch(b)
	defer stopDispatch(t, b, done)
	defer b.Submit(ep.StopListening)

	_, err = unix.Write(cli, []byte{'r'})
	require.NoError(t, err)

	select {
	case s := <-statuses:
		require.Equal(t, NoError, s)
	case <-time.After(3 * time.Second):
		t.Fatal("no readiness callback")
	}
}
