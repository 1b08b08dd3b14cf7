// File: reactor/signal.go
// Author: momentics <momentics@gmail.com>
//
// Signal relays OS signals into the dispatch loop. Delivery goes through a
// dedicated goroutine that submits onto the Base, so the callback always
// runs on the dispatch thread with the cached time refreshed.

package reactor

import (
	"errors"
	"os"
	"os/signal"
)

// ErrNoSignalCapture is returned when binding signals on a Base created
// without signal capture.
var ErrNoSignalCapture = errors.New("reactor: base created without signal capture")

// Signal forwards one or more OS signals to a callback on the dispatch
// thread. Bind may be called repeatedly to chain signals onto one relay.
type Signal struct {
	base  *Base
	cb    func(os.Signal)
	ch    chan os.Signal
	done  chan struct{}
	bound []os.Signal
}

// NewSignal creates an empty relay on b.
func NewSignal(b *Base, cb func(os.Signal)) (*Signal, error) {
	if !b.captureSignals {
		return nil, ErrNoSignalCapture
	}
	s := &Signal{
		base: b,
		cb:   cb,
		ch:   make(chan os.Signal, 16),
		done: make(chan struct{}),
	}
	go s.relay()
	return s, nil
}

func (s *Signal) relay() {
	for {
		select {
		case sig := <-s.ch:
			s.base.Submit(func() { s.cb(sig) })
		case <-s.done:
			return
		}
	}
}

// Bind registers one or more OS signals with the relay.
func (s *Signal) Bind(sigs ...os.Signal) error {
	signal.Notify(s.ch, sigs...)
	s.bound = append(s.bound, sigs...)
	return nil
}

// Bound returns the signals currently attached to the relay.
func (s *Signal) Bound() []os.Signal { return s.bound }

// Delete unregisters every bound signal and stops the relay goroutine.
func (s *Signal) Delete() {
	signal.Stop(s.ch)
	close(s.done)
	s.bound = nil
}
