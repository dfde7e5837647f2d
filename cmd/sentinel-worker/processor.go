package main

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/sentinel-metrics/sentinel/internal/aggregate"
	"github.com/sentinel-metrics/sentinel/internal/alert"
	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/dedup"
	"github.com/sentinel-metrics/sentinel/internal/notify"
	"github.com/sentinel-metrics/sentinel/internal/transform"
	"github.com/sentinel-metrics/sentinel/internal/tsdb"
	"github.com/sentinel-metrics/sentinel/internal/verify"
)

// processorDeps bundles the collaborators the per-batch processing pipeline
// needs (§4.10), passed by value so the pipeline closure in main stays a
// thin adapter over this function.
type processorDeps struct {
	store     *tsdb.Store
	dedup     *dedup.BatchDedup
	agg       *aggregate.Store
	evaluator *alert.Evaluator
	notifier  notify.Notifier
	secrets   verify.SecretProvider
	logger    log.Logger
}

// processBatch implements the worker's processing pipeline (§4.10):
// verify, dedup, transform, persist, then aggregate-and-evaluate, dispatching
// any alert events the evaluator emits. A non-nil return leaves the
// originating delivery unacked so the broker redelivers it (§4.9).
func processBatch(ctx context.Context, d processorDeps, b *batch.Batch, headers broker.Headers) error {
	switch verify.Verify(d.secrets, b, headers) {
	case verify.ResultInvalid:
		level.Warn(d.logger).Log("msg", "batch failed verification, discarding", "agent_id", b.AgentID, "batch_id", b.BatchID)
		return nil
	case verify.ResultSkipped:
		level.Debug(d.logger).Log("msg", "batch verification skipped (no secret or signature)", "agent_id", b.AgentID, "batch_id", b.BatchID)
	}

	if d.dedup.SeenBefore(b.BatchID) {
		level.Debug(d.logger).Log("msg", "dropping duplicate batch", "agent_id", b.AgentID, "batch_id", b.BatchID)
		return nil
	}

	rows := transform.Rows(b)

	if _, err := tsdb.RetryInsertRows(ctx, d.store, rows, tsdb.DefaultBackOff(), d.logger); err != nil {
		return fmt.Errorf("worker: persist rows: %w", err)
	}

	var nowMs int64
	for _, row := range rows {
		if row.Value == nil {
			continue
		}
		d.agg.Push(row.AgentID, row.Name, row.TimeMs, *row.Value)
		if row.TimeMs > nowMs {
			nowMs = row.TimeMs
		}
	}

	events := d.evaluator.EvaluateAgent(b.AgentID, nowMs)
	for _, event := range events {
		if err := d.store.InsertAlertEvent(ctx, event); err != nil {
			level.Error(d.logger).Log("msg", "failed to persist alert event", "err", err)
		}
		if err := d.notifier.Send(ctx, event); err != nil {
			level.Error(d.logger).Log("msg", "notifier dispatch failed after retries", "err", err)
		}
	}

	return nil
}
