// Command sentinel-agent runs the collection pipeline described in §4: a
// scheduler feeding a batch composer, a durable WAL, and a send loop pushing
// signed batches to a Server role.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinel-metrics/sentinel/internal/agentapi"
	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/collector"
	"github.com/sentinel-metrics/sentinel/internal/collector/system"
	"github.com/sentinel-metrics/sentinel/internal/config"
	"github.com/sentinel-metrics/sentinel/internal/keystore"
	"github.com/sentinel-metrics/sentinel/internal/retry"
	"github.com/sentinel-metrics/sentinel/internal/scheduler"
	"github.com/sentinel-metrics/sentinel/internal/sendloop"
	"github.com/sentinel-metrics/sentinel/internal/wal"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(logger, level.AllowInfo())
}

func main() {
	logger := newLogger()

	cfg, err := config.LoadAgentConfig()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}
	if cfg.AgentID == "" {
		level.Error(logger).Log("msg", "SENTINEL_AGENT_ID must be set; run `sentinelctl register` first")
		os.Exit(1)
	}

	ks, err := openKeyStore(cfg)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open key store", "err", err)
		os.Exit(1)
	}
	secret, err := ks.Load(cfg.AgentID)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load agent secret", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()

	w, err := wal.Open(cfg.Buffer.WALDir, wal.Options{
		FsyncOnAppend:   cfg.Buffer.FsyncOnAppend,
		MaxSegmentBytes: cfg.Buffer.SegmentSizeMB * 1024 * 1024,
		Logger:          logger,
		Registerer:      reg,
		AgentID:         cfg.AgentID,
	})
	if err != nil {
		level.Error(logger).Log("msg", "failed to open WAL", "err", err)
		os.Exit(1)
	}
	defer w.Close()

	composer := batch.NewComposer(cfg.AgentID)
	metricsCh := make(chan []batch.Metric, 16)

	sched := scheduler.New(
		time.Duration(cfg.Collect.IntervalSeconds)*time.Second,
		cfg.Collect.JitterFraction,
		systemCollector(cfg),
		metricsCh,
		log.With(logger, "component", "scheduler"),
	)

	keys := sendloop.NewStaticKeySource("", secret)
	client := sendloop.NewHTTPClient(cfg.Server)
	loop := sendloop.New(w, client, keys, retry.DefaultPolicy(), log.With(logger, "component", "sendloop"))

	router := agentapi.NewRouter(func() error { return nil })
	httpServer := &http.Server{Addr: cfg.APIAddr, Handler: router}

	var g run.Group

	ctx, cancel := context.WithCancel(context.Background())
	g.Add(func() error {
		sched.Run(ctx)
		return nil
	}, func(error) { cancel() })

	g.Add(func() error {
		return composeAndAppend(ctx, w, composer, metricsCh, logger)
	}, func(error) { cancel() })

	sendCtx, sendCancel := context.WithCancel(context.Background())
	g.Add(func() error {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := loop.RunCycle(sendCtx); err != nil {
					level.Warn(logger).Log("msg", "send cycle failed", "err", err)
				}
			case <-sendCtx.Done():
				return nil
			}
		}
	}, func(error) { sendCancel() })

	g.Add(func() error {
		level.Info(logger).Log("msg", "agent API listening", "addr", cfg.APIAddr)
		return httpServer.ListenAndServe()
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Run(); err != nil {
		level.Info(logger).Log("msg", "agent exiting", "err", err)
	}

	if err := w.SaveMeta(); err != nil {
		level.Error(logger).Log("msg", "failed to persist WAL meta on shutdown", "err", err)
	}
}

// composeAndAppend bridges the scheduler's collected-metrics channel into the
// WAL: compose a Batch, wire-encode it, append it. This is the "composer"
// stage of the collector -> composer -> WAL data flow.
func composeAndAppend(ctx context.Context, w *wal.WAL, composer *batch.Composer, in <-chan []batch.Metric, logger log.Logger) error {
	for {
		select {
		case metrics := <-in:
			b := composer.Compose(metrics)
			if _, err := w.Append(wire.Marshal(b)); err != nil {
				level.Error(logger).Log("msg", "failed to append batch to WAL", "err", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func openKeyStore(cfg config.AgentConfig) (keystore.KeyStore, error) {
	switch cfg.Security.KeyStore {
	case "file":
		masterKey, err := base64.StdEncoding.DecodeString(cfg.MasterKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decode SENTINEL_MASTER_KEY: %w", err)
		}
		return keystore.NewFileKeyStore(cfg.Buffer.WALDir+"/keys", masterKey)
	default:
		return keystore.NewEnvKeyStore(), nil
	}
}

func systemCollector(cfg config.AgentConfig) collector.Collector {
	return system.New(system.Toggle{
		CPU:  cfg.Collect.Metrics.CPU,
		Mem:  cfg.Collect.Metrics.Mem,
		Disk: cfg.Collect.Metrics.Disk,
	})
}
