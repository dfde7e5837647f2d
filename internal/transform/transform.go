// Package transform projects a verified Batch's metrics into MetricRows,
// the shape internal/tsdb persists (§3 "Metric Row", §4.10 "Transform").
package transform

import "github.com/sentinel-metrics/sentinel/internal/batch"

// MetricRow is one persisted, flattened metric observation (§3).
type MetricRow struct {
	TimeMs              int64
	AgentID             string
	Name                string
	Labels              map[string]string
	MetricType          string
	Value               *float64
	HistogramBoundaries []float64
	HistogramCounts     []uint64
	HistogramCount      *uint64
	HistogramSum        *float64
}

func kindString(k batch.Kind) string {
	switch k {
	case batch.KindGauge:
		return "gauge"
	case batch.KindCounter:
		return "counter"
	case batch.KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Rows projects every metric in b into a MetricRow, in declared order.
// Labels are copied rather than aliased so later batch mutation (there
// should be none, per the Batch immutability invariant) can never affect a
// row already handed to the persist step.
func Rows(b *batch.Batch) []MetricRow {
	rows := make([]MetricRow, 0, len(b.Metrics))
	for _, m := range b.Metrics {
		labels := make(map[string]string, len(m.Labels))
		for k, v := range m.Labels {
			labels[k] = v
		}

		row := MetricRow{
			TimeMs:     m.TimestampMs,
			AgentID:    b.AgentID,
			Name:       m.Name,
			Labels:     labels,
			MetricType: kindString(m.Kind),
		}

		switch m.ValueTag() {
		case batch.ValueTagDouble:
			v := m.Double
			row.Value = &v
		case batch.ValueTagInt:
			v := float64(m.Int)
			row.Value = &v
		case batch.ValueTagHistogram:
			if m.Histogram != nil {
				row.HistogramBoundaries = append([]float64(nil), m.Histogram.Boundaries...)
				row.HistogramCounts = append([]uint64(nil), m.Histogram.Counts...)
				count := m.Histogram.Count
				sum := m.Histogram.Sum
				row.HistogramCount = &count
				row.HistogramSum = &sum
			}
		}

		rows = append(rows, row)
	}
	return rows
}
