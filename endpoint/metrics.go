//go:build linux || darwin

// File: endpoint/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Optional counters. One Metrics value is shared across the endpoints of
// a worker and registered on a caller-supplied registry.

package endpoint

import "github.com/prometheus/client_golang/prometheus"

// Metrics aggregates endpoint event counters.
type Metrics struct {
	Accepted     prometheus.Counter
	Reclaimed    prometheus.Counter
	Timeouts     prometheus.Counter
	DatagramsIn  prometheus.Counter
	DatagramsOut prometheus.Counter
	SendErrors   prometheus.Counter
}

// NewMetrics creates and registers the counter set. A nil registerer
// yields unregistered (but usable) counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netio", Name: "tcp_accepted_total",
			Help: "TCP connections accepted into the handler pool.",
		}),
		Reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netio", Name: "tcp_reclaimed_total",
			Help: "TCP handlers returned to their listener's pool.",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netio", Name: "tcp_timeouts_total",
			Help: "TCP transfers dropped on deadline expiry.",
		}),
		DatagramsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netio", Name: "udp_datagrams_in_total",
			Help: "Datagrams received across UDP endpoints.",
		}),
		DatagramsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netio", Name: "udp_datagrams_out_total",
			Help: "Datagram replies sent across UDP endpoints.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netio", Name: "send_errors_total",
			Help: "Reply sends that failed and were dropped.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Accepted, m.Reclaimed, m.Timeouts,
			m.DatagramsIn, m.DatagramsOut, m.SendErrors)
	}
	return m
}

func (m *Metrics) incAccepted() {
	if m != nil {
		m.Accepted.Inc()
	}
}

func (m *Metrics) incReclaimed() {
	if m != nil {
		m.Reclaimed.Inc()
	}
}

func (m *Metrics) incTimeout() {
	if m != nil {
		m.Timeouts.Inc()
	}
}

func (m *Metrics) incIn() {
	if m != nil {
		m.DatagramsIn.Inc()
	}
}

func (m *Metrics) incOut() {
	if m != nil {
		m.DatagramsOut.Inc()
	}
}

func (m *Metrics) incSendErr() {
	if m != nil {
		m.SendErrors.Inc()
	}
}
