package system

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectProducesNonEmptyMetrics(t *testing.T) {
	c := New(Toggle{CPU: true, Mem: true, Disk: true})
	metrics, err := c.Collect()
	require.NoError(t, err)
	require.NotEmpty(t, metrics)
}

func TestCollectRespectsToggles(t *testing.T) {
	c := New(Toggle{})
	metrics, err := c.Collect()
	require.NoError(t, err)
	for _, m := range metrics {
		require.NotContains(t, m.Name, "mem.")
		require.NotContains(t, m.Name, "cpu.")
		require.NotContains(t, m.Name, "disk.")
	}
}

func TestMemoryMetricsPresentWhenEnabled(t *testing.T) {
	c := New(Toggle{Mem: true})
	metrics, err := c.Collect()
	require.NoError(t, err)
	var names []string
	for _, m := range metrics {
		names = append(names, m.Name)
	}
	require.Contains(t, names, "mem.total_bytes")
	require.Contains(t, names, "mem.used_bytes")
}
