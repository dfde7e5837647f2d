// Package tsdb implements the worker's persist step (§4.10): a single
// transaction inserting projected MetricRows, plus the raw-payload,
// alert-events, rules, and DLQ tables named in §6 "Persistent state
// layout". The concrete schema is a Non-goal; this package fixes only the
// row shape and write contract.
package tsdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/lib/pq"

	"github.com/sentinel-metrics/sentinel/internal/alert"
	"github.com/sentinel-metrics/sentinel/internal/transform"
)

// Store wraps a *sql.DB with the write paths the worker pipeline needs.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Open connects to a Postgres database at dsn via lib/pq.
func Open(dsn string, logger log.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("tsdb: open: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Store{db: db, logger: logger}, nil
}

// NewStore wraps an already-open *sql.DB, for callers that manage the
// connection pool themselves (and for tests against sqlmock/sqlite shims).
func NewStore(db *sql.DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Store{db: db, logger: logger}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying *sql.DB for callers that need it directly
// (migrations, the DLQ adapter).
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks connectivity, used by the worker's /health endpoint.
func (s *Store) Ping() error { return s.db.Ping() }

// InsertRawBatch records the verbatim wire-encoded batch for audit (§6
// "raw-payload table").
func (s *Store) InsertRawBatch(ctx context.Context, agentID, batchID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_batches (agent_id, batch_id, payload, received_at) VALUES ($1, $2, $3, now())`,
		agentID, batchID, payload)
	if err != nil {
		return fmt.Errorf("tsdb: insert raw batch: %w", err)
	}
	return nil
}

// InsertRows inserts every row in a single transaction, returning the
// number of rows committed (§4.10 "Persist").
func (s *Store) InsertRows(ctx context.Context, rows []transform.MetricRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("tsdb: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metric_rows
			(time_ms, agent_id, name, labels, metric_type, value,
			 histogram_boundaries, histogram_counts, histogram_count, histogram_sum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return 0, fmt.Errorf("tsdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		labelsJSON, err := json.Marshal(r.Labels)
		if err != nil {
			return 0, fmt.Errorf("tsdb: marshal labels: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.TimeMs, r.AgentID, r.Name, labelsJSON, r.MetricType,
			r.Value, pq.Array(r.HistogramBoundaries), pq.Array(histogramCountsAsInt64(r.HistogramCounts)),
			r.HistogramCount, r.HistogramSum); err != nil {
			return 0, fmt.Errorf("tsdb: insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("tsdb: commit: %w", err)
	}
	level.Debug(s.logger).Log("msg", "persisted metric rows", "count", len(rows))
	return len(rows), nil
}

// InsertAlertEvent records an emitted alert event (§6 "alert events table").
func (s *Store) InsertAlertEvent(ctx context.Context, e alert.Event) error {
	annotations, err := json.Marshal(e.Annotations)
	if err != nil {
		return fmt.Errorf("tsdb: marshal annotations: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alert_events
			(id, fingerprint, rule_id, rule_name, agent_id, metric_name, severity,
			 status, value, threshold, fired_at_ms, resolved_at_ms, annotations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.Fingerprint, e.RuleID, e.RuleName, e.AgentID, e.MetricName, e.Severity,
		string(e.Status), e.Value, e.Threshold, nullIfZero(e.FiredAtMs), nullIfZero(e.ResolvedAtMs), annotations)
	if err != nil {
		return fmt.Errorf("tsdb: insert alert event: %w", err)
	}
	return nil
}

func histogramCountsAsInt64(v []uint64) []int64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]int64, len(v))
	for i, c := range v {
		out[i] = int64(c)
	}
	return out
}

func nullIfZero(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
