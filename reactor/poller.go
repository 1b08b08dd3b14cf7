// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness poller interface. Linux uses epoll(7),
// Darwin uses kqueue(2); other platforms fail at Base creation.

package reactor

// EventType is a bit set of readiness conditions delivered to a Handle.
type EventType uint8

const (
	// EventRead indicates the descriptor is readable.
	EventRead EventType = 1 << iota
	// EventWrite indicates the descriptor is writable.
	EventWrite
	// EventTimeout indicates the handle's armed deadline expired.
	EventTimeout
)

// pollEvent is one readiness notification from the OS multiplexer.
type pollEvent struct {
	fd     int
	events EventType
}

// poller is the OS readiness multiplexer behind a Base.
type poller interface {
	add(fd int, events EventType) error
	mod(fd int, events EventType) error
	del(fd int) error

	// wait blocks up to timeoutMs (-1 blocks indefinitely) and fills evs.
	// A signal interruption is reported as (0, nil).
	wait(evs []pollEvent, timeoutMs int) (int, error)

	close() error
}
