package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAgentConfigDefaults(t *testing.T) {
	cfg, err := LoadAgentConfig()
	require.NoError(t, err)
	require.Equal(t, int64(10), cfg.Collect.IntervalSeconds)
	require.True(t, cfg.Collect.Metrics.CPU)
	require.Equal(t, int64(16), cfg.Buffer.SegmentSizeMB)
	require.Equal(t, "env", cfg.Security.KeyStore)
}

func TestLoadAgentConfigOverrides(t *testing.T) {
	t.Setenv("SENTINEL_COLLECT_INTERVAL_SECONDS", "30")
	t.Setenv("SENTINEL_COLLECT_CPU", "false")
	t.Setenv("SENTINEL_KEY_STORE", "file")

	cfg, err := LoadAgentConfig()
	require.NoError(t, err)
	require.Equal(t, int64(30), cfg.Collect.IntervalSeconds)
	require.False(t, cfg.Collect.Metrics.CPU)
	require.Equal(t, "file", cfg.Security.KeyStore)
}

func TestLoadAgentConfigRejectsMalformedInt(t *testing.T) {
	t.Setenv("SENTINEL_COLLECT_INTERVAL_SECONDS", "not-a-number")
	_, err := LoadAgentConfig()
	require.Error(t, err)
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	require.Equal(t, int64(5*60*1000), cfg.ReplayWindowMs)
	require.Equal(t, ":8080", cfg.RESTAddr)
}

func TestLoadWorkerConfigDefaults(t *testing.T) {
	cfg, err := LoadWorkerConfig()
	require.NoError(t, err)
	require.Equal(t, int64(100), cfg.BatchSize)
	require.Equal(t, int64(5), cfg.MaxDeliver)
}
