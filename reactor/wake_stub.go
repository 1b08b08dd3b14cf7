//go:build !linux && !darwin

// File: reactor/wake_stub.go
// Author: momentics <momentics@gmail.com>

package reactor

type wakePipe struct {
	r, w int
}

func newWakePipe() (*wakePipe, error) { return nil, ErrUnsupported }

func (p *wakePipe) wake()        {}
func (p *wakePipe) drain()       {}
func (p *wakePipe) close() error { return nil }
