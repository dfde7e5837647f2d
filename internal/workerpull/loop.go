package workerpull

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

// Nacker is implemented by Consumers that support explicit nack/requeue
// (currently only InMemoryConsumer; KafkaConsumer relies on simply not
// marking the message, per its own doc comment).
type Nacker interface {
	Nack(d Delivery)
}

// Pipeline is the worker's processing pipeline (§4.10), invoked once per
// successfully decoded batch. A non-nil error leaves the delivery unacked.
type Pipeline func(ctx context.Context, b *batch.Batch, headers broker.Headers) error

// Loop drives Consumer.Fetch in a cycle: fetch, decode, process, ack/leave
// unacked (§4.9).
type Loop struct {
	Consumer  Consumer
	Pipeline  Pipeline
	BatchSize int
	IdleSleep time.Duration
	Logger    log.Logger

	metrics *loopMetrics
}

// New builds a Loop with the defaults used across the worker binaries.
func New(consumer Consumer, pipeline Pipeline, batchSize int, logger log.Logger, reg prometheus.Registerer) *Loop {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Loop{
		Consumer:  consumer,
		Pipeline:  pipeline,
		BatchSize: batchSize,
		IdleSleep: 200 * time.Millisecond,
		Logger:    logger,
		metrics:   newLoopMetrics(reg),
	}
}

// Run blocks, repeatedly fetching and processing until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for ctx.Err() == nil {
		l.RunOnce(ctx)
	}
}

// RunOnce executes a single fetch-and-process pass (§4.9 steps 1-3).
func (l *Loop) RunOnce(ctx context.Context) {
	deliveries, err := l.Consumer.Fetch(ctx, l.BatchSize)
	if err != nil {
		if ctx.Err() == nil {
			level.Warn(l.Logger).Log("msg", "worker pull fetch failed", "err", err)
		}
		return
	}
	if len(deliveries) == 0 {
		time.Sleep(l.IdleSleep)
		return
	}

	for _, d := range deliveries {
		l.processOne(ctx, d)
	}
}

func (l *Loop) processOne(ctx context.Context, d Delivery) {
	b, err := wire.Unmarshal(d.Message.Payload)
	if err != nil {
		level.Error(l.Logger).Log("msg", "worker dropping undecodable message", "err", err)
		l.metrics.decodeErrorsTotal.Inc()
		d.Ack()
		return
	}

	if err := l.Pipeline(ctx, b, d.Message.Headers); err != nil {
		level.Warn(l.Logger).Log("msg", "pipeline failed, leaving unacked", "agent_id", b.AgentID, "batch_id", b.BatchID, "err", err)
		l.metrics.processErrorsTotal.Inc()
		if n, ok := l.Consumer.(Nacker); ok {
			n.Nack(d)
		}
		return
	}

	d.Ack()
	l.metrics.processedTotal.Inc()
}
