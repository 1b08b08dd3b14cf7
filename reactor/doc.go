// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>

// Package reactor implements the single-threaded event dispatch core: a
// Base owns one OS readiness multiplexer and a cached wall-clock snapshot,
// and drives fd handles, one-shot timers and signal relays until told to
// exit. One goroutine calls Dispatch; the only operations that may be
// invoked from other goroutines are Submit and Exit.
package reactor
