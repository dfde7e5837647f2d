// Command sentinel-worker runs the bus-consuming pipeline described in
// §4.9-4.13: pull from the broker, verify/dedup/transform/persist each
// batch, roll up its metrics into the aggregator, evaluate alert rules, and
// dispatch notifications.
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

	"github.com/sentinel-metrics/sentinel/internal/aggregate"
	"github.com/sentinel-metrics/sentinel/internal/alert"
	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/config"
	"github.com/sentinel-metrics/sentinel/internal/dedup"
	"github.com/sentinel-metrics/sentinel/internal/notify"
	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/rules"
	"github.com/sentinel-metrics/sentinel/internal/tsdb"
	"github.com/sentinel-metrics/sentinel/internal/tsdb/migrations"
	"github.com/sentinel-metrics/sentinel/internal/verify"
	"github.com/sentinel-metrics/sentinel/internal/workerapi"
	"github.com/sentinel-metrics/sentinel/internal/workerpull"
)

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(logger, level.AllowInfo())
}

func main() {
	logger := newLogger()

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()

	store, err := tsdb.Open(cfg.DatabaseURL, log.With(logger, "component", "tsdb"))
	if err != nil {
		level.Error(logger).Log("msg", "failed to open tsdb", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if n, err := migrations.Apply(store.DB()); err != nil {
		level.Error(logger).Log("msg", "failed to apply migrations", "err", err)
		os.Exit(1)
	} else if n > 0 {
		level.Info(logger).Log("msg", "applied migrations", "count", n)
	}

	// The worker resolves agent secrets through the same registry.Store
	// shape the server's admission handler uses; in a split deployment this
	// would be a remote lookup, but the registry's ResolveSecret contract is
	// identical either way (§4.10 "whatever secret provider backs the
	// worker").
	agents := registry.NewStore()
	rulesStore := rules.NewStore()
	batchDedup := dedup.New()
	aggStore := aggregate.NewStore(cfg.WindowMs)
	alertStates := alert.NewStateStore()
	evaluator := alert.NewEvaluator(rulesStore, aggStore, alertStates)
	secretProvider := verify.RegistryProvider{Store: agents, GracePeriodMs: int64(24 * time.Hour / time.Millisecond)}

	var dlq notify.DLQ = tsdb.NewSQLDLQ(context.Background(), store)
	notifier := notify.NewRetryNotifier(loggingNotifier{logger: log.With(logger, "component", "notify")}, 3, 200*time.Millisecond, dlq, logger)

	consumer, err := openConsumer(cfg)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open broker consumer", "err", err)
		os.Exit(1)
	}
	defer consumer.Close()

	pipeline := func(ctx context.Context, b *batch.Batch, headers broker.Headers) error {
		return processBatch(ctx, processorDeps{
			store:      store,
			dedup:      batchDedup,
			agg:        aggStore,
			evaluator:  evaluator,
			notifier:   notifier,
			secrets:    secretProvider,
			logger:     logger,
		}, b, headers)
	}

	loop := workerpull.New(consumer, pipeline, int(cfg.BatchSize), log.With(logger, "component", "workerpull"), reg)

	router := workerapi.NewRouter(func() error { return store.Ping() })
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	httpServer := &http.Server{Addr: cfg.APIAddr, Handler: router}

	var g run.Group

	pullCtx, pullCancel := context.WithCancel(context.Background())
	g.Add(func() error {
		loop.Run(pullCtx)
		return nil
	}, func(error) { pullCancel() })

	evictCtx, evictCancel := context.WithCancel(context.Background())
	g.Add(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().Add(-24 * time.Hour).UnixMilli()
				removed := batchDedup.EvictOlderThan(cutoff)
				level.Debug(logger).Log("msg", "ran dedup eviction", "removed", removed)
			case <-evictCtx.Done():
				return nil
			}
		}
	}, func(error) { evictCancel() })

	g.Add(func() error {
		level.Info(logger).Log("msg", "worker API listening", "addr", cfg.APIAddr)
		return httpServer.ListenAndServe()
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Run(); err != nil {
		level.Info(logger).Log("msg", "worker exiting", "err", err)
	}
}

// openConsumer picks the broker backend for this process, mirroring
// sentinel-server's openPublisher: an in-memory consumer has nothing to push
// to it outside tests, so a non-empty NATS_URL (the stand-in Kafka broker
// address; see DESIGN.md) always selects KafkaConsumer in practice.
func openConsumer(cfg config.WorkerConfig) (workerpull.Consumer, error) {
	if cfg.NATSURL == "" {
		return workerpull.NewInMemoryConsumer(int(cfg.MaxDeliver)), nil
	}
	return workerpull.NewKafkaConsumer(workerpull.KafkaConfig{
		Brokers:    []string{cfg.NATSURL},
		GroupID:    "sentinel-worker",
		MaxDeliver: int(cfg.MaxDeliver),
	})
}

// loggingNotifier is the worker's default notification channel when no
// webhook/Slack/Discord/SMTP notifier is configured: it logs the event so
// the pipeline still exercises the full notify.RetryNotifier/DLQ path
// end-to-end in a standalone deployment.
type loggingNotifier struct {
	logger log.Logger
}

func (n loggingNotifier) Name() string { return "log" }

func (n loggingNotifier) Send(_ context.Context, event alert.Event) error {
	level.Info(n.logger).Log("msg", "alert event", "status", event.Status, "rule", event.RuleName,
		"agent_id", event.AgentID, "metric", event.MetricName, "value", event.Value, "threshold", event.Threshold)
	return nil
}
