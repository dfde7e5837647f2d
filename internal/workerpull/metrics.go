package workerpull

import "github.com/prometheus/client_golang/prometheus"

// loopMetrics mirrors the server package's metrics struct shape.
type loopMetrics struct {
	r prometheus.Registerer

	processedTotal     prometheus.Counter
	decodeErrorsTotal  prometheus.Counter
	processErrorsTotal prometheus.Counter
}

func newLoopMetrics(r prometheus.Registerer) *loopMetrics {
	m := &loopMetrics{
		r: r,
		processedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_worker_messages_processed_total",
			Help: "Number of messages successfully processed and acked by the pull loop.",
		}),
		decodeErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_worker_decode_errors_total",
			Help: "Number of messages that failed to decode and were acked-and-dropped.",
		}),
		processErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_worker_process_errors_total",
			Help: "Number of messages whose pipeline failed and were left unacked for redelivery.",
		}),
	}
	if r != nil {
		r.MustRegister(m.processedTotal, m.decodeErrorsTotal, m.processErrorsTotal)
	}
	return m
}

func (m *loopMetrics) Unregister() {
	if m.r == nil {
		return
	}
	m.r.(prometheus.Unregisterer).Unregister(m.processedTotal)
	m.r.(prometheus.Unregisterer).Unregister(m.decodeErrorsTotal)
	m.r.(prometheus.Unregisterer).Unregister(m.processErrorsTotal)
}
