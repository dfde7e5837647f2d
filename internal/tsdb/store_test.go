package tsdb

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/alert"
	"github.com/sentinel-metrics/sentinel/internal/notify"
	"github.com/sentinel-metrics/sentinel/internal/transform"
)

func TestInsertRowsCommitsSingleTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO metric_rows")
	mock.ExpectExec("INSERT INTO metric_rows").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO metric_rows").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	v := 1.5
	rows := []transform.MetricRow{
		{TimeMs: 1, AgentID: "a1", Name: "cpu", MetricType: "gauge", Value: &v},
		{TimeMs: 2, AgentID: "a1", Name: "mem", MetricType: "gauge", Value: &v},
	}

	n, err := store.InsertRows(context.Background(), rows)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db, nil)
	n, err := store.InsertRows(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAlertEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db, nil)
	mock.ExpectExec("INSERT INTO alert_events").WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.InsertAlertEvent(context.Background(), alert.Event{
		ID: "evt-1", Fingerprint: "fp", RuleID: "r1", RuleName: "cpu-high",
		AgentID: "a1", MetricName: "cpu", Status: alert.EventFiring,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDLQInsertListDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db, nil)
	dlq := NewSQLDLQ(context.Background(), store)

	mock.ExpectExec("INSERT INTO notifications_dlq").WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, dlq.Insert(notify.DLQEntry{ID: "d1", AlertID: "evt-1", NotifierName: "webhook", Attempts: 3}))

	rowsReturned := sqlmock.NewRows([]string{"id", "alert_id", "notifier_name", "payload", "error", "attempts", "created_at_ms"}).
		AddRow("d1", "evt-1", "webhook", []byte("{}"), "boom", 3, int64(100))
	mock.ExpectQuery("SELECT id, alert_id").WillReturnRows(rowsReturned)
	entries, err := dlq.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "d1", entries[0].ID)

	mock.ExpectExec("DELETE FROM notifications_dlq").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, dlq.Delete("d1"))

	require.NoError(t, mock.ExpectationsWereMet())
}
