package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/alert"
)

type countingNotifier struct {
	name    string
	fails   int
	calls   int
}

func (n *countingNotifier) Name() string { return n.name }

func (n *countingNotifier) Send(_ context.Context, _ alert.Event) error {
	n.calls++
	if n.calls <= n.fails {
		return errors.New("boom")
	}
	return nil
}

func TestRetryNotifierSucceedsAfterTransientFailures(t *testing.T) {
	inner := &countingNotifier{name: "test", fails: 2}
	rn := NewRetryNotifier(inner, 3, time.Millisecond, nil, nil).WithSleep(func(time.Duration) {})

	err := rn.Send(context.Background(), alert.Event{ID: "evt-1"})
	require.NoError(t, err)
	require.Equal(t, 3, inner.calls)
}

func TestRetryNotifierRespectsMaxRetriesAndWritesDLQ(t *testing.T) {
	inner := &countingNotifier{name: "test", fails: 100}
	dlq := NewInMemoryDLQ()
	rn := NewRetryNotifier(inner, 2, time.Millisecond, dlq, nil).
		WithSleep(func(time.Duration) {}).
		WithClock(func() int64 { return 42 })

	err := rn.Send(context.Background(), alert.Event{ID: "evt-2"})
	require.Error(t, err)
	require.Equal(t, 3, inner.calls, "max_retries+1 total attempts")

	entries, err := dlq.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "evt-2", entries[0].AlertID)
	require.Equal(t, 3, entries[0].Attempts)
	require.Equal(t, int64(42), entries[0].CreatedAtMs)
}

func TestRetryNotifierNoDLQWhenNotConfigured(t *testing.T) {
	inner := &countingNotifier{name: "test", fails: 100}
	rn := NewRetryNotifier(inner, 1, time.Millisecond, nil, nil).WithSleep(func(time.Duration) {})

	err := rn.Send(context.Background(), alert.Event{ID: "evt-3"})
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)
}
