package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContactMetrics holds Prometheus metrics for the contact form pipeline.
type ContactMetrics struct {
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	RelayDuration      prometheus.Histogram
	BreakerState       prometheus.Gauge
}

// NewContactMetrics creates and registers contact form metrics on the given registry.
func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Total number of contact form submissions, by outcome.",
		}, []string{"outcome"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "validation_failures_total",
			Help:      "Total number of rejected contact form fields, by field.",
		}, []string{"field"}),
		RelayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "relay_duration_seconds",
			Help:      "Duration of mail relay requests in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "relay_circuit_state",
			Help:      "Mail relay circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.Submissions, m.ValidationFailures, m.RelayDuration, m.BreakerState)
	return m
}
