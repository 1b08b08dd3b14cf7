// File: reactor/base.go
// Author: momentics <momentics@gmail.com>
//
// Base is the per-worker event multiplexing context: one poller, one cached
// time snapshot, one dispatch loop. A worker thread creates its own Base;
// Bases are never shared.

package reactor

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eapache/queue"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Base drives readiness events, deadlines and submitted tasks on a single
// goroutine. Submit and Exit are the only methods safe to call from other
// goroutines.
type Base struct {
	logger *zap.Logger
	clock  clock.Clock
	poller poller

	handles map[int]*Handle
	timers  timerHeap
	evbuf   []pollEvent

	// Cached once per readiness batch so callbacks never pay a time
	// syscall per event.
	secs int64
	now  time.Time

	wake       *wakePipe
	wakeHandle *Handle

	mu      sync.Mutex
	tasks   *queue.Queue
	exiting bool

	captureSignals bool
}

// Option customizes Base creation.
type Option func(*Base)

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Base) { b.logger = l }
}

// WithClock overrides the time source, for tests.
func WithClock(c clock.Clock) Option {
	return func(b *Base) { b.clock = c }
}

// New creates a Base. captureSignals permits signal relays on this Base;
// workers that leave signal handling to the main thread pass false.
func New(captureSignals bool, opts ...Option) (*Base, error) {
	b := &Base{
		logger:         zap.NewNop(),
		clock:          clock.New(),
		handles:        make(map[int]*Handle),
		evbuf:          make([]pollEvent, 128),
		tasks:          queue.New(),
		captureSignals: captureSignals,
	}
	for _, opt := range opts {
		opt(b)
	}
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	wp, err := newWakePipe()
	if err != nil {
		p.close()
		return nil, err
	}
	b.poller = p
	b.wake = wp
	b.wakeHandle = b.NewHandle(func(EventType) { b.wake.drain() })
	b.wakeHandle.SetFD(wp.r)
	b.wakeHandle.SetEvents(EventRead)
	if err := b.wakeHandle.Arm(0); err != nil {
		wp.close()
		p.close()
		return nil, err
	}
	b.refreshNow()
	return b, nil
}

// Now returns the cached epoch seconds and timestamp. The pair refreshes
// once per readiness batch, not per call.
func (b *Base) Now() (int64, time.Time) {
	return b.secs, b.now
}

func (b *Base) refreshNow() {
	b.now = b.clock.Now()
	b.secs = b.now.Unix()
}

// Submit queues fn to run on the dispatch goroutine. Safe from any
// goroutine; the blocking poll is interrupted if needed.
func (b *Base) Submit(fn func()) {
	b.mu.Lock()
	b.tasks.Add(fn)
	b.mu.Unlock()
	b.wake.wake()
}

// Exit requests loop termination after the current iteration. It does not
// close any resources and never interrupts a running callback.
func (b *Base) Exit() {
	b.Submit(func() {
		b.mu.Lock()
		b.exiting = true
		b.mu.Unlock()
	})
}

// runTasks drains the submission queue. Returns true when exit was
// requested.
func (b *Base) runTasks() bool {
	b.mu.Lock()
	if b.tasks.Length() == 0 {
		done := b.exiting
		b.mu.Unlock()
		return done
	}
	batch := make([]func(), 0, b.tasks.Length())
	for b.tasks.Length() > 0 {
		batch = append(batch, b.tasks.Remove().(func()))
	}
	b.mu.Unlock()

	b.refreshNow()
	for _, fn := range batch {
		fn()
	}
	b.mu.Lock()
	done := b.exiting
	b.mu.Unlock()
	return done
}

// nextTimeoutMs computes the poll timeout from the earliest deadline.
func (b *Base) nextTimeoutMs() int {
	h := b.timers.peek()
	if h == nil {
		return -1
	}
	d := h.deadline.Sub(b.clock.Now())
	if d <= 0 {
		return 0
	}
	ms := int(d / time.Millisecond)
	return ms + 1
}

// fireDeadlines delivers EventTimeout to every handle whose deadline
// passed. Deadlines are one-shot; descriptor registrations persist.
func (b *Base) fireDeadlines() {
	for {
		h := b.timers.peek()
		if h == nil || h.deadline.After(b.now) {
			return
		}
		b.timers.unschedule(h)
		h.fn(EventTimeout)
	}
}

// Dispatch runs the event loop until Exit is called. A poller failure is
// unrecoverable and terminates the process, matching the contract that the
// reactor's invariants can no longer be trusted.
func (b *Base) Dispatch() {
	for {
		if b.runTasks() {
			return
		}
		n, err := b.poller.wait(b.evbuf, b.nextTimeoutMs())
		if err != nil {
			b.logger.Fatal("event dispatch failed", zap.Error(err))
		}
		b.refreshNow()
		b.fireDeadlines()
		for i := 0; i < n; i++ {
			ev := b.evbuf[i]
			h, ok := b.handles[ev.fd]
			if !ok {
				continue
			}
			if got := ev.events & h.events; got != 0 {
				h.fn(got)
			}
		}
	}
}

// Close releases the poller and wakeup pipe. The Base must not be
// dispatching.
func (b *Base) Close() error {
	return multierr.Append(b.wake.close(), b.poller.close())
}

// MemUsage approximates the Base's memory footprint for diagnostics.
func (b *Base) MemUsage() int {
	return int(64 + len(b.evbuf)*8 + len(b.handles)*48 + len(b.timers)*8)
}
