// Package config defines the typed configuration schema for each of the
// three binaries and loads it from environment variables (§6 "Environment
// variables"). File-based config parsing is an explicit Non-goal; these
// struct shapes are the seam a future file loader would populate, matching
// the field names of the original implementation's
// crates/agent/src/config/schema.rs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

// MetricsToggle mirrors schema.rs's MetricsToggle: which system collector
// facets are enabled.
type MetricsToggle struct {
	CPU  bool
	Mem  bool
	Disk bool
}

// CollectConfig mirrors schema.rs's CollectConfig.
type CollectConfig struct {
	IntervalSeconds int64
	JitterFraction  float64
	Metrics         MetricsToggle
}

// BufferConfig mirrors schema.rs's BufferConfig (the WAL's tunables).
type BufferConfig struct {
	WALDir          string
	SegmentSizeMB   int64
	MaxRetentionDays int64
	FsyncOnAppend   bool
}

// SecurityConfig mirrors schema.rs's SecurityConfig.
type SecurityConfig struct {
	KeyStore                   string // "env" or "file"
	RotationCheckIntervalHours int64
}

// AgentConfig is cmd/sentinel-agent's configuration (§6, schema.rs
// AgentConfig).
type AgentConfig struct {
	AgentID      string
	Server       string
	APIAddr      string
	PluginsDir   string
	Collect      CollectConfig
	Buffer       BufferConfig
	Security     SecurityConfig
	MasterKeyHex string
}

// LoadAgentConfig populates an AgentConfig from environment variables with
// the defaults schema.rs applies via serde(default = ...).
func LoadAgentConfig() (AgentConfig, error) {
	interval, err := getEnvInt64("SENTINEL_COLLECT_INTERVAL_SECONDS", 10)
	if err != nil {
		return AgentConfig{}, err
	}
	segmentMB, err := getEnvInt64("SENTINEL_WAL_SEGMENT_SIZE_MB", 16)
	if err != nil {
		return AgentConfig{}, err
	}
	retentionDays, err := getEnvInt64("SENTINEL_WAL_MAX_RETENTION_DAYS", 7)
	if err != nil {
		return AgentConfig{}, err
	}
	fsync, err := getEnvBool("SENTINEL_WAL_FSYNC", true)
	if err != nil {
		return AgentConfig{}, err
	}
	rotationHours, err := getEnvInt64("SENTINEL_ROTATION_CHECK_INTERVAL_HOURS", 24)
	if err != nil {
		return AgentConfig{}, err
	}
	cpu, err := getEnvBool("SENTINEL_COLLECT_CPU", true)
	if err != nil {
		return AgentConfig{}, err
	}
	mem, err := getEnvBool("SENTINEL_COLLECT_MEM", true)
	if err != nil {
		return AgentConfig{}, err
	}
	disk, err := getEnvBool("SENTINEL_COLLECT_DISK", true)
	if err != nil {
		return AgentConfig{}, err
	}

	return AgentConfig{
		AgentID:      os.Getenv("SENTINEL_AGENT_ID"),
		Server:       getEnv("SENTINEL_SERVER_ADDR", "http://localhost:8080"),
		APIAddr:      getEnv("AGENT_API_ADDR", ":9101"),
		PluginsDir:   getEnv("SENTINEL_PLUGINS_DIR", "/var/lib/sentinel/plugins"),
		MasterKeyHex: os.Getenv("SENTINEL_MASTER_KEY"),
		Collect: CollectConfig{
			IntervalSeconds: interval,
			JitterFraction:  0.1,
			Metrics:         MetricsToggle{CPU: cpu, Mem: mem, Disk: disk},
		},
		Buffer: BufferConfig{
			WALDir:           getEnv("SENTINEL_WAL_DIR", "/var/lib/sentinel/wal"),
			SegmentSizeMB:    segmentMB,
			MaxRetentionDays: retentionDays,
			FsyncOnAppend:    fsync,
		},
		Security: SecurityConfig{
			KeyStore:                   getEnv("SENTINEL_KEY_STORE", "env"),
			RotationCheckIntervalHours: rotationHours,
		},
	}, nil
}

// ServerConfig is cmd/sentinel-server's configuration (§6).
type ServerConfig struct {
	RESTAddr       string
	GRPCAddr       string
	JWTSecret      string
	NATSURL        string
	ReplayWindowMs int64
	GracePeriodMs  int64
}

// LoadServerConfig populates a ServerConfig from environment variables.
func LoadServerConfig() (ServerConfig, error) {
	replay, err := getEnvInt64("SENTINEL_REPLAY_WINDOW_MS", 5*60*1000)
	if err != nil {
		return ServerConfig{}, err
	}
	grace, err := getEnvInt64("SENTINEL_GRACE_PERIOD_MS", int64(24*time.Hour/time.Millisecond))
	if err != nil {
		return ServerConfig{}, err
	}

	restAddr := getEnv("REST_ADDR", getEnv("REST_PORT", ":8080"))
	grpcAddr := getEnv("GRPC_ADDR", getEnv("GRPC_PORT", ":9090"))

	return ServerConfig{
		RESTAddr:       restAddr,
		GRPCAddr:       grpcAddr,
		JWTSecret:      getEnv("JWT_SECRET", ""),
		NATSURL:        getEnv("NATS_URL", "nats://localhost:4222"),
		ReplayWindowMs: replay,
		GracePeriodMs:  grace,
	}, nil
}

// WorkerConfig is cmd/sentinel-worker's configuration (§6).
type WorkerConfig struct {
	APIAddr        string
	DatabaseURL    string
	NATSURL        string
	BatchSize      int64
	WindowMs       int64
	MaxDeliver     int64
}

// LoadWorkerConfig populates a WorkerConfig from environment variables.
func LoadWorkerConfig() (WorkerConfig, error) {
	batchSize, err := getEnvInt64("BATCH_SIZE", 100)
	if err != nil {
		return WorkerConfig{}, err
	}
	windowMs, err := getEnvInt64("SENTINEL_AGGREGATE_WINDOW_MS", 5*60*1000)
	if err != nil {
		return WorkerConfig{}, err
	}
	maxDeliver, err := getEnvInt64("SENTINEL_MAX_DELIVER", 5)
	if err != nil {
		return WorkerConfig{}, err
	}

	return WorkerConfig{
		APIAddr:     getEnv("WORKER_API_ADDR", ":9102"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		BatchSize:   batchSize,
		WindowMs:    windowMs,
		MaxDeliver:  maxDeliver,
	}, nil
}
