//go:build !linux && !darwin

// File: reactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback for platforms without a poller backend. Base creation fails.

package reactor

import "errors"

// ErrUnsupported is returned from New on platforms without a poller backend.
var ErrUnsupported = errors.New("reactor: no poller backend for this platform")

func newPoller() (poller, error) {
	return nil, ErrUnsupported
}
