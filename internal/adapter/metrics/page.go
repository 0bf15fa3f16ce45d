package metrics

import "github.com/prometheus/client_golang/prometheus"

// PageMetrics holds Prometheus metrics for live page sessions.
type PageMetrics struct {
	ActiveSessions     prometheus.Gauge
	RejectedSessions   *prometheus.CounterVec
	EventsReceived     *prometheus.CounterVec
	SectionActivations *prometheus.CounterVec
	SlowClientsDropped prometheus.Counter
}

// NewPageMetrics creates and registers page session metrics on the given registry.
func NewPageMetrics(reg prometheus.Registerer) *PageMetrics {
	m := &PageMetrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "active_sessions",
			Help:      "Number of page sessions with an open WebSocket.",
		}),
		RejectedSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "rejected_sessions_total",
			Help:      "Total number of page session upgrades rejected, by limit.",
		}, []string{"reason"}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "events_received_total",
			Help:      "Total number of client events received, by type.",
		}, []string{"type"}),
		SectionActivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "section_activations_total",
			Help:      "Total number of times a section became the active section.",
		}, []string{"section"}),
		SlowClientsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "slow_clients_dropped_total",
			Help:      "Total number of page sessions closed because the client could not keep up.",
		}),
	}

	reg.MustRegister(m.ActiveSessions, m.RejectedSessions, m.EventsReceived, m.SectionActivations, m.SlowClientsDropped)
	return m
}
