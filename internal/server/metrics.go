package server

import "github.com/prometheus/client_golang/prometheus"

// serverMetrics mirrors the teacher's storageMetrics shape: one struct of
// counters/gauges, constructed against a Registerer and unregistered as a
// unit.
type serverMetrics struct {
	r prometheus.Registerer

	acceptedTotal     prometheus.Counter
	duplicateTotal    prometheus.Counter
	unauthorizedTotal prometheus.Counter
	invalidTotal      prometheus.Counter
	retryTotal        prometheus.Counter
}

func newServerMetrics(r prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		r: r,
		acceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_server_batches_accepted_total",
			Help: "Number of batches accepted by the admission handler.",
		}),
		duplicateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_server_batches_duplicate_total",
			Help: "Number of duplicate batches acknowledged without republishing.",
		}),
		unauthorizedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_server_batches_unauthorized_total",
			Help: "Number of batches rejected for failing authentication or signature verification.",
		}),
		invalidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_server_batches_invalid_total",
			Help: "Number of batches rejected as malformed.",
		}),
		retryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_server_batches_retry_total",
			Help: "Number of batches that failed to publish and were reported as retryable.",
		}),
	}
	if r != nil {
		r.MustRegister(m.acceptedTotal, m.duplicateTotal, m.unauthorizedTotal, m.invalidTotal, m.retryTotal)
	}
	return m
}

func (m *serverMetrics) Unregister() {
	if m.r == nil {
		return
	}
	m.r.(prometheus.Unregisterer).Unregister(m.acceptedTotal)
	m.r.(prometheus.Unregisterer).Unregister(m.duplicateTotal)
	m.r.(prometheus.Unregisterer).Unregister(m.unauthorizedTotal)
	m.r.(prometheus.Unregisterer).Unregister(m.invalidTotal)
	m.r.(prometheus.Unregisterer).Unregister(m.retryTotal)
}
