// Command sentinel-server runs the admission path described in §4.6: verify
// and dedup incoming batches, publish them to the broker, and expose the
// operator REST surface for registration, key rotation, and rule CRUD.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/config"
	"github.com/sentinel-metrics/sentinel/internal/idempotency"
	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/rules"
	"github.com/sentinel-metrics/sentinel/internal/server"
)

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(logger, level.AllowInfo())
}

func main() {
	logger := newLogger()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	agents := registry.NewStore()
	rulesStore := rules.NewStore()
	idem := idempotency.NewStore(32)

	publisher, err := openPublisher(cfg)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open broker publisher", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()

	handler := server.NewHandler(agents, idem, publisher, server.Config{
		ReplayWindowMs: cfg.ReplayWindowMs,
		GracePeriodMs:  cfg.GracePeriodMs,
	}, log.With(logger, "component", "admission"), reg)
	defer handler.Close()

	httpRouter := server.NewRouter(handler, agents, log.With(logger, "component", "http"))
	server.MountAdminRoutes(httpRouter, agents, rulesStore, []byte(cfg.JWTSecret))
	httpRouter.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	httpRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	httpServer := &http.Server{Addr: cfg.RESTAddr, Handler: httpRouter}

	var g run.Group

	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	g.Add(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := agents.PurgeExpiredKeys(cfg.GracePeriodMs)
				evicted := idem.EvictOlderThan(time.Now().Add(-time.Duration(cfg.ReplayWindowMs) * time.Millisecond * 10).UnixMilli())
				level.Debug(logger).Log("msg", "ran background purge", "expired_keys_removed", removed, "idempotency_entries_evicted", evicted)
			case <-purgeCtx.Done():
				return nil
			}
		}
	}, func(error) { purgeCancel() })

	g.Add(func() error {
		level.Info(logger).Log("msg", "server listening", "addr", cfg.RESTAddr)
		return httpServer.ListenAndServe()
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Run(); err != nil {
		level.Info(logger).Log("msg", "server exiting", "err", err)
	}
}

// openPublisher picks the broker backend for this process. NATS_URL is the
// configuration knob the original SentinelRS implementation used to address
// its JetStream cluster; here it addresses the Kafka brokers the teacher's
// stack speaks instead (see DESIGN.md).
func openPublisher(cfg config.ServerConfig) (broker.Publisher, error) {
	if cfg.NATSURL == "" {
		return broker.NewInMemoryPublisher(), nil
	}
	return broker.NewKafkaPublisher(broker.KafkaConfig{Brokers: []string{cfg.NATSURL}})
}
