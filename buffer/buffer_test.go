// File: buffer/buffer_test.go
// Author: momentics <momentics@gmail.com>

package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorLifecycle(t *testing.T) {
	b := New(16)
	require.Equal(t, 16, b.Capacity())
	require.Equal(t, 0, b.Position())
	require.Equal(t, 16, b.Limit())

	n := b.Write([]byte("hello"))
	require.Equal(t, 5, n)
	require.Equal(t, 5, b.Position())

	b.Flip()
	require.Equal(t, 0, b.Position())
	require.Equal(t, 5, b.Limit())
	require.Equal(t, 5, b.Remaining())
	require.Equal(t, []byte("hello"), b.Current())
	require.Equal(t, []byte("hello"), b.Begin())

	b.Skip(2)
	require.Equal(t, []byte("llo"), b.Current())
	require.Equal(t, []byte("lo"), b.At(3))

	b.Clear()
	require.Equal(t, 0, b.Position())
	require.Equal(t, 16, b.Limit())
}

func TestSetLimitClipsPosition(t *testing.T) {
	b := New(8)
	b.Skip(6)
	b.SetLimit(4)
	require.Equal(t, 4, b.Position())
	require.Equal(t, 0, b.Remaining())
}

func TestU16RoundTrip(t *testing.T) {
	b := New(4)
	b.WriteU16At(0, 0xABCD)
	require.Equal(t, uint16(0xABCD), b.ReadU16At(0))
	require.Equal(t, byte(0xAB), b.Bytes()[0])
	require.Equal(t, byte(0xCD), b.Bytes()[1])
}

func TestWriteStopsAtLimit(t *testing.T) {
	b := New(4)
	n := b.Write([]byte("toolong"))
	require.Equal(t, 4, n)
	require.Equal(t, 4, b.Position())
}

func TestPoolHandsOutClearedBuffers(t *testing.T) {
	p := NewPool(32)
	b := p.Get()
	require.Equal(t, 32, b.Capacity())
	b.Write([]byte("dirty"))
	b.Flip()
	p.Put(b)

	b2 := p.Get()
	require.Equal(t, 0, b2.Position())
	require.Equal(t, 32, b2.Limit())
}

func TestPoolRejectsForeignBuffers(t *testing.T) {
	p := NewPool(32)
	p.Put(New(64))
	b := p.Get()
	require.Equal(t, 32, b.Capacity())
}
