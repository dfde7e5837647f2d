package wal

import "github.com/prometheus/client_golang/prometheus"

// walMetrics mirrors the storageMetrics pattern in the teacher's
// pkg/metrics/wal/wal.go: a small struct of counters/gauges built once with a
// Registerer, registered in the constructor, with a matching Unregister.
type walMetrics struct {
	r prometheus.Registerer

	appendedTotal  prometheus.Counter
	ackedTotal     prometheus.Counter
	crcErrorsTotal prometheus.Counter
	compactionsTotal prometheus.Counter
	segmentsGauge  prometheus.Gauge
	unackedGauge   prometheus.Gauge
}

func newWALMetrics(r prometheus.Registerer, agentID string) *walMetrics {
	m := &walMetrics{r: r}
	labels := prometheus.Labels{"agent_id": agentID}

	m.appendedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "sentinel_agent_wal_appended_total",
		Help:        "Total number of records appended to the WAL.",
		ConstLabels: labels,
	})
	m.ackedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "sentinel_agent_wal_acked_total",
		Help:        "Total number of records acknowledged.",
		ConstLabels: labels,
	})
	m.crcErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "sentinel_agent_wal_crc_errors_total",
		Help:        "Total number of CRC mismatches encountered while scanning segments.",
		ConstLabels: labels,
	})
	m.compactionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "sentinel_agent_wal_compactions_total",
		Help:        "Total number of compaction runs.",
		ConstLabels: labels,
	})
	m.segmentsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "sentinel_agent_wal_segments",
		Help:        "Current number of on-disk segment files.",
		ConstLabels: labels,
	})
	m.unackedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "sentinel_agent_wal_unacked_records",
		Help:        "Current number of unacknowledged records as of the last iter_unacked scan.",
		ConstLabels: labels,
	})

	if r != nil {
		r.MustRegister(
			m.appendedTotal,
			m.ackedTotal,
			m.crcErrorsTotal,
			m.compactionsTotal,
			m.segmentsGauge,
			m.unackedGauge,
		)
	}
	return m
}

func (m *walMetrics) Unregister() {
	if m.r == nil {
		return
	}
	for _, c := range []prometheus.Collector{
		m.appendedTotal, m.ackedTotal, m.crcErrorsTotal,
		m.compactionsTotal, m.segmentsGauge, m.unackedGauge,
	} {
		m.r.Unregister(c)
	}
}
