//go:build linux || darwin

// File: reactor/signal_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSignalRequiresCapture(t *testing.T) {
	b := newTestBase(t)
	_, err := NewSignal(b, func(os.Signal) {})
	require.ErrorIs(t, err, ErrNoSignalCapture)
}

func TestSignalDeliveredOnDispatchThread(t *testing.T) {
	b, err := New(true)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	var got os.Signal
	s, err := NewSignal(b, func(sig os.Signal) {
		got = sig
		b.Exit()
	})
	require.NoError(t, err)
	defer s.Delete()
	require.NoError(t, s.Bind(syscall.SIGUSR1))
	require.Equal(t, []os.Signal{syscall.SIGUSR1}, s.Bound())

	done := dispatch(b)
	// Give the relay a moment, then signal ourselves.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, unix.Kill(unix.Getpid(), unix.SIGUSR1))
	waitClosed(t, done)

	require.Equal(t, syscall.SIGUSR1, got)
}
