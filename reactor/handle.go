// File: reactor/handle.go
// Author: momentics <momentics@gmail.com>

package reactor

import "time"

// Handle binds one descriptor (or none, for pure timers) to a callback on a
// Base. Arming registers the descriptor with the poller and, when a timeout
// is given, schedules a one-shot deadline. The descriptor registration
// persists until Disarm; the deadline is consumed when it fires.
//
// Handles are owned by the dispatch goroutine. None of these methods may be
// called from another goroutine.
type Handle struct {
	base    *Base
	fd      int
	armedFD int
	events  EventType
	fn      func(EventType)

	deadline time.Time
	heapIdx  int
}

// NewHandle creates an unarmed handle with no descriptor.
func (b *Base) NewHandle(fn func(EventType)) *Handle {
	return &Handle{
		base:    b,
		fd:      -1,
		armedFD: -1,
		heapIdx: -1,
		fn:      fn,
	}
}

// SetFD changes the descriptor used on the next Arm. It does not touch an
// existing registration; Arm swaps it.
func (h *Handle) SetFD(fd int) { h.fd = fd }

// FD returns the descriptor currently assigned to the handle.
func (h *Handle) FD() int { return h.fd }

// SetEvents changes the readiness interest used on the next Arm.
func (h *Handle) SetEvents(events EventType) { h.events = events }

// Events returns the current readiness interest.
func (h *Handle) Events() EventType { return h.events }

// Arm registers the handle's descriptor for its interest set and, if
// timeout > 0, schedules a deadline that fires EventTimeout once. A zero
// timeout clears any pending deadline. Re-arming an armed handle updates
// the registration in place.
func (h *Handle) Arm(timeout time.Duration) error {
	b := h.base
	if h.fd >= 0 {
		if h.armedFD >= 0 && h.armedFD != h.fd {
			if err := b.poller.del(h.armedFD); err == nil {
				delete(b.handles, h.armedFD)
			}
			h.armedFD = -1
		}
		if h.armedFD == h.fd {
			if err := b.poller.mod(h.fd, h.events); err != nil {
				return err
			}
		} else {
			if err := b.poller.add(h.fd, h.events); err != nil {
				return err
			}
			h.armedFD = h.fd
			b.handles[h.fd] = h
		}
	}
	if timeout > 0 || h.fd < 0 {
		h.deadline = b.clock.Now().Add(timeout)
		b.timers.schedule(h)
	} else {
		b.timers.unschedule(h)
	}
	return nil
}

// Disarm removes the descriptor registration and any pending deadline.
func (h *Handle) Disarm() error {
	b := h.base
	b.timers.unschedule(h)
	if h.armedFD < 0 {
		return nil
	}
	err := b.poller.del(h.armedFD)
	delete(b.handles, h.armedFD)
	h.armedFD = -1
	return err
}

// IsArmed reports whether the descriptor is registered or a deadline is
// pending.
func (h *Handle) IsArmed() bool {
	return h.armedFD >= 0 || h.heapIdx >= 0
}
