package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/batch"
)

func TestRowsProjectsDoubleIntAndHistogram(t *testing.T) {
	b := &batch.Batch{
		AgentID: "agent-1",
		Metrics: []batch.Metric{
			{Name: "cpu", Kind: batch.KindGauge, Double: 55.5, TimestampMs: 1000, Labels: map[string]string{"host": "a"}},
			{Name: "requests", Kind: batch.KindCounter, Int: 42, TimestampMs: 1000},
			{Name: "latency", Kind: batch.KindHistogram, TimestampMs: 1000, Histogram: &batch.Histogram{
				Boundaries: []float64{1, 2}, Counts: []uint64{3, 4}, Count: 7, Sum: 10,
			}},
		},
	}

	rows := Rows(b)
	require.Len(t, rows, 3)

	require.Equal(t, "gauge", rows[0].MetricType)
	require.NotNil(t, rows[0].Value)
	require.Equal(t, 55.5, *rows[0].Value)
	require.Equal(t, "a", rows[0].Labels["host"])

	require.Equal(t, "counter", rows[1].MetricType)
	require.NotNil(t, rows[1].Value)
	require.Equal(t, 42.0, *rows[1].Value)

	require.Equal(t, "histogram", rows[2].MetricType)
	require.Nil(t, rows[2].Value)
	require.Equal(t, []float64{1, 2}, rows[2].HistogramBoundaries)
	require.Equal(t, []uint64{3, 4}, rows[2].HistogramCounts)
	require.NotNil(t, rows[2].HistogramCount)
	require.Equal(t, uint64(7), *rows[2].HistogramCount)
}

func TestRowsLabelsAreCopiedNotAliased(t *testing.T) {
	labels := map[string]string{"host": "a"}
	b := &batch.Batch{Metrics: []batch.Metric{{Name: "cpu", Kind: batch.KindGauge, Labels: labels}}}
	rows := Rows(b)
	labels["host"] = "mutated"
	require.Equal(t, "a", rows[0].Labels["host"])
}
