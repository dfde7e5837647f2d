package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/batch"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	b := &batch.Batch{
		AgentID:     "agent-1",
		BatchID:     "b-1",
		SeqStart:    3,
		SeqEnd:      5,
		CreatedAtMs: 1700000000000,
		Meta:        map[string]string{"region": "eu"},
		Metrics: []batch.Metric{
			{
				Name:        "cpu.usage",
				Labels:      map[string]string{"host": "a"},
				Kind:        batch.KindGauge,
				Double:      55.5,
				TimestampMs: 1000,
			},
			{
				Name:        "requests.total",
				Kind:        batch.KindCounter,
				Int:         42,
				TimestampMs: 2000,
			},
			{
				Name: "latency.seconds",
				Kind: batch.KindHistogram,
				Histogram: &batch.Histogram{
					Boundaries: []float64{0.1, 0.5, 1},
					Counts:     []uint64{1, 2, 3},
					Count:      6,
					Sum:        3.4,
				},
				TimestampMs: 3000,
			},
		},
	}

	encoded := Marshal(b)
	decoded, err := Unmarshal(encoded)
	require.NoError(t, err)

	require.Equal(t, b.AgentID, decoded.AgentID)
	require.Equal(t, b.BatchID, decoded.BatchID)
	require.Equal(t, b.SeqStart, decoded.SeqStart)
	require.Equal(t, b.SeqEnd, decoded.SeqEnd)
	require.Equal(t, b.CreatedAtMs, decoded.CreatedAtMs)
	require.Equal(t, b.Meta, decoded.Meta)
	require.Len(t, decoded.Metrics, 3)
	require.Equal(t, b.Metrics[0].Double, decoded.Metrics[0].Double)
	require.Equal(t, b.Metrics[1].Int, decoded.Metrics[1].Int)
	require.Equal(t, b.Metrics[2].Histogram.Boundaries, decoded.Metrics[2].Histogram.Boundaries)
	require.Equal(t, b.Metrics[2].Histogram.Sum, decoded.Metrics[2].Histogram.Sum)
}

func TestUnmarshalRejectsValuelessMetric(t *testing.T) {
	buf := appendBytesField(nil, fBatchMetrics, appendStringField(nil, fMetricName, "no-value"))
	_, err := Unmarshal(buf)
	require.Error(t, err)
}
