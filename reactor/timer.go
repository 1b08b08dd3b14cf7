// File: reactor/timer.go
// Author: momentics <momentics@gmail.com>

package reactor

import "time"

// Timer is a one-shot, rearmable countdown on a Base. Set arms it, firing
// the callback exactly once after the duration elapses; periodic behavior
// is the caller's job via re-Set from the callback.
type Timer struct {
	handle  *Handle
	cb      func()
	enabled bool
}

// NewTimer creates a disabled timer on b.
func NewTimer(b *Base, cb func()) *Timer {
	t := &Timer{cb: cb}
	t.handle = b.NewHandle(func(ev EventType) {
		if ev&EventTimeout == 0 {
			return
		}
		t.enabled = false
		t.cb()
	})
	return t
}

// Set arms (or rearms) the timer for d from now. An armed timer is
// disabled first so it is never registered twice.
func (t *Timer) Set(d time.Duration) {
	if t.enabled {
		t.Disable()
	}
	_ = t.handle.Arm(d)
	t.enabled = true
}

// Disable cancels a pending timer. Disabling an idle timer is a no-op.
func (t *Timer) Disable() {
	_ = t.handle.Disarm()
	t.enabled = false
}

// IsSet reports whether the timer is armed.
func (t *Timer) IsSet() bool { return t.enabled }

// MemUsage approximates the timer's memory footprint.
func (t *Timer) MemUsage() int {
	return 96
}
