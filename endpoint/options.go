//go:build linux || darwin

// File: endpoint/options.go
// Author: momentics <momentics@gmail.com>

package endpoint

import (
	"time"

	"go.uber.org/zap"
)

// Option customizes endpoint construction.
type Option func(*Endpoint)

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Endpoint) { c.logger = l }
}

// WithMetrics attaches shared counters. Defaults to none.
func WithMetrics(m *Metrics) Option {
	return func(c *Endpoint) { c.metrics = m }
}

// WithQueryTimeout overrides the default per-connection TCP query timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Endpoint) { c.queryTimeout = d }
}

// WithUDPBatch overrides the number of datagrams handled per readiness
// notification. Use 1 on platforms whose nonblocking mode is unreliable.
func WithUDPBatch(n int) Option {
	return func(c *Endpoint) {
		if n > 0 {
			c.udpBatch = n
		}
	}
}
