package tsdb

import (
	"context"
	"fmt"

	"github.com/sentinel-metrics/sentinel/internal/notify"
)

// SQLDLQ persists notify.DLQEntry rows to the notifications_dlq table
// (§6 "a notifications DLQ table"), so a RetryNotifier's exhausted sends
// survive a worker restart instead of living only in memory.
type SQLDLQ struct {
	store *Store
	ctx   context.Context
}

// NewSQLDLQ wraps store as a notify.DLQ backed by notifications_dlq.
func NewSQLDLQ(ctx context.Context, store *Store) *SQLDLQ {
	return &SQLDLQ{store: store, ctx: ctx}
}

// Insert implements notify.DLQ.
func (d *SQLDLQ) Insert(entry notify.DLQEntry) error {
	_, err := d.store.db.ExecContext(d.ctx, `
		INSERT INTO notifications_dlq (id, alert_id, notifier_name, payload, error, attempts, created_at_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, entry.AlertID, entry.NotifierName, entry.Payload, entry.Error, entry.Attempts, entry.CreatedAtMs)
	if err != nil {
		return fmt.Errorf("tsdb: insert dlq entry: %w", err)
	}
	return nil
}

// List implements notify.DLQ.
func (d *SQLDLQ) List() ([]notify.DLQEntry, error) {
	rows, err := d.store.db.QueryContext(d.ctx, `
		SELECT id, alert_id, notifier_name, payload, error, attempts, created_at_ms FROM notifications_dlq`)
	if err != nil {
		return nil, fmt.Errorf("tsdb: list dlq entries: %w", err)
	}
	defer rows.Close()

	var out []notify.DLQEntry
	for rows.Next() {
		var e notify.DLQEntry
		if err := rows.Scan(&e.ID, &e.AlertID, &e.NotifierName, &e.Payload, &e.Error, &e.Attempts, &e.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("tsdb: scan dlq entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete implements notify.DLQ.
func (d *SQLDLQ) Delete(id string) error {
	_, err := d.store.db.ExecContext(d.ctx, `DELETE FROM notifications_dlq WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tsdb: delete dlq entry: %w", err)
	}
	return nil
}
