package sendloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/retry"
	"github.com/sentinel-metrics/sentinel/internal/server"
	"github.com/sentinel-metrics/sentinel/internal/wal"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

type fakeKeys struct{}

func (fakeKeys) CurrentKey() (string, []byte) { return "k1", []byte("secret") }

type fakeClient struct {
	statuses []server.Status
	errs     []error
	calls    int
}

func (f *fakeClient) PushMetrics(ctx context.Context, b *batch.Batch, keyID, signature string) (server.PushResult, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return server.PushResult{}, f.errs[idx]
	}
	status := server.StatusOk
	if idx < len(f.statuses) {
		status = f.statuses[idx]
	}
	return server.PushResult{Status: status}, nil
}

func appendBatch(t *testing.T, w *wal.WAL, agentID string, seq uint64) uint64 {
	t.Helper()
	b := &batch.Batch{AgentID: agentID, BatchID: "b1", SeqStart: seq, SeqEnd: seq + 1, Meta: map[string]string{}}
	id, err := w.Append(wire.Marshal(b))
	require.NoError(t, err)
	return id
}

func openTestWAL(t *testing.T) *wal.WAL {
	t.Helper()
	w, err := wal.Open(t.TempDir(), wal.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func noSleep(time.Duration) {}

func TestRunCycleAcksOnOk(t *testing.T) {
	w := openTestWAL(t)
	appendBatch(t, w, "agent-1", 0)

	client := &fakeClient{statuses: []server.Status{server.StatusOk}}
	loop := New(w, client, fakeKeys{}, retry.Policy{MaxAttempts: 1}, nil).WithSleep(noSleep)

	require.NoError(t, loop.RunCycle(context.Background()))

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Empty(t, unacked)
}

func TestRunCycleAcksAndDropsOnRejected(t *testing.T) {
	w := openTestWAL(t)
	appendBatch(t, w, "agent-1", 0)

	client := &fakeClient{statuses: []server.Status{server.StatusRejected}}
	loop := New(w, client, fakeKeys{}, retry.Policy{MaxAttempts: 1}, nil).WithSleep(noSleep)

	require.NoError(t, loop.RunCycle(context.Background()))

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Empty(t, unacked)
}

func TestRunCycleStopsAfterRetryExhaustion(t *testing.T) {
	w := openTestWAL(t)
	appendBatch(t, w, "agent-1", 0)
	appendBatch(t, w, "agent-1", 1)

	client := &fakeClient{statuses: []server.Status{server.StatusRetry, server.StatusRetry}}
	loop := New(w, client, fakeKeys{}, retry.Policy{MaxAttempts: 1}, nil).WithSleep(noSleep)

	require.NoError(t, loop.RunCycle(context.Background()))

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Len(t, unacked, 2, "both records stay unacked once the first exhausts retries")
}

func TestRunCycleRetriesThenSucceeds(t *testing.T) {
	w := openTestWAL(t)
	appendBatch(t, w, "agent-1", 0)

	client := &fakeClient{statuses: []server.Status{server.StatusRetry, server.StatusOk}}
	loop := New(w, client, fakeKeys{}, retry.Policy{MaxAttempts: 5}, nil).WithSleep(noSleep)

	require.NoError(t, loop.RunCycle(context.Background()))

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Empty(t, unacked)
	require.Equal(t, 2, client.calls)
}

func TestRunCycleTreatsTransportErrorAsRetryable(t *testing.T) {
	w := openTestWAL(t)
	appendBatch(t, w, "agent-1", 0)

	client := &fakeClient{errs: []error{errors.New("dial tcp: connection refused"), nil}, statuses: []server.Status{server.StatusOk, server.StatusOk}}
	loop := New(w, client, fakeKeys{}, retry.Policy{MaxAttempts: 5}, nil).WithSleep(noSleep)

	require.NoError(t, loop.RunCycle(context.Background()))

	unacked, err := w.IterUnacked()
	require.NoError(t, err)
	require.Empty(t, unacked)
}
