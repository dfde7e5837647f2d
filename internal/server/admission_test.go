package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/canon"
	"github.com/sentinel-metrics/sentinel/internal/idempotency"
	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/signer"
)

type fixture struct {
	agents    *registry.Store
	idem      *idempotency.Store
	publisher *broker.InMemoryPublisher
	handler   *Handler
	agentID   string
	secret    []byte
	keyID     string
	now       int64
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	now := int64(1_700_000_000_000)

	agents := registry.NewStore().WithClock(func() int64 { return now })
	idem := idempotency.NewStore(4).WithClock(func() int64 { return now })
	pub := broker.NewInMemoryPublisher()

	agentID, secretB64, _ := agents.Register("hw-1", "v1.0.0")
	rec, ok := agents.Get(agentID)
	require.True(t, ok)
	_ = secretB64

	h := NewHandler(agents, idem, pub, cfg, nil, nil).WithClock(func() int64 { return now })

	return &fixture{
		agents:    agents,
		idem:      idem,
		publisher: pub,
		handler:   h,
		agentID:   agentID,
		secret:    rec.CurrentKey.Secret,
		keyID:     rec.CurrentKey.KeyID,
		now:       now,
	}
}

func (f *fixture) sign(b *batch.Batch) PushHeaders {
	sig := signer.Sign(f.secret, canon.Bytes(b))
	return PushHeaders{AgentID: f.agentID, KeyID: f.keyID, Signature: sig}
}

func makeBatch(agentID string, createdAtMs int64) *batch.Batch {
	return &batch.Batch{
		AgentID:     agentID,
		BatchID:     "batch-1",
		SeqStart:    0,
		SeqEnd:      1,
		CreatedAtMs: createdAtMs,
		Metrics: []batch.Metric{
			{Name: "cpu", Kind: batch.KindGauge, Double: 0.5, TimestampMs: createdAtMs},
		},
		Meta: map[string]string{},
	}
}

func TestPushMetricsSignedRoundTrip(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	b := makeBatch(f.agentID, f.now)
	headers := f.sign(b)

	result, err := f.handler.PushMetrics(headers, b)
	require.NoError(t, err)
	require.Equal(t, StatusOk, result.Status)
	require.Equal(t, 1, f.publisher.Count())
}

func TestPushMetricsIdempotentOnRetry(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	b := makeBatch(f.agentID, f.now)
	headers := f.sign(b)

	_, err := f.handler.PushMetrics(headers, b)
	require.NoError(t, err)

	result, err := f.handler.PushMetrics(headers, b)
	require.NoError(t, err)
	require.Equal(t, StatusOk, result.Status)
	require.Equal(t, "duplicate", result.Message)
	require.Equal(t, 1, f.publisher.Count(), "duplicate must not be republished")
}

func TestPushMetricsRejectsBadSignature(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	b := makeBatch(f.agentID, f.now)
	headers := f.sign(b)
	headers.Signature = "tampered"

	_, err := f.handler.PushMetrics(headers, b)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Equal(t, 0, f.publisher.Count())
}

func TestPushMetricsRejectsReplay(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 1_000, GracePeriodMs: 3_600_000})
	b := makeBatch(f.agentID, f.now-10_000) // 10s outside a 1s window
	headers := f.sign(b)

	_, err := f.handler.PushMetrics(headers, b)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPushMetricsAcceptsRotatedKeyWithinGrace(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	oldSecret, oldKeyID := f.secret, f.keyID

	_, ok := f.agents.RotateKey(f.agentID)
	require.True(t, ok)

	b := makeBatch(f.agentID, f.now)
	sig := signer.Sign(oldSecret, canon.Bytes(b))
	headers := PushHeaders{AgentID: f.agentID, KeyID: oldKeyID, Signature: sig}

	result, err := f.handler.PushMetrics(headers, b)
	require.NoError(t, err)
	require.Equal(t, StatusOk, result.Status)
}

func TestPushMetricsRejectsRotatedKeyOutsideGrace(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 0})
	oldSecret, oldKeyID := f.secret, f.keyID

	_, ok := f.agents.RotateKey(f.agentID)
	require.True(t, ok)

	b := makeBatch(f.agentID, f.now)
	sig := signer.Sign(oldSecret, canon.Bytes(b))
	headers := PushHeaders{AgentID: f.agentID, KeyID: oldKeyID, Signature: sig}

	_, err := f.handler.PushMetrics(headers, b)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPushMetricsRejectsUnknownAgent(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	b := makeBatch("agent-ghost", f.now)
	headers := PushHeaders{AgentID: "agent-ghost", KeyID: "key-x", Signature: "whatever"}

	_, err := f.handler.PushMetrics(headers, b)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPushMetricsRejectsEmptyBatchID(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	b := makeBatch(f.agentID, f.now)
	b.BatchID = ""
	headers := f.sign(b)

	_, err := f.handler.PushMetrics(headers, b)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPushMetricsReturnsRetryOnPublishFailure(t *testing.T) {
	f := newFixture(t, Config{ReplayWindowMs: 60_000, GracePeriodMs: 3_600_000})
	f.handler.publisher = failingPublisher{}

	b := makeBatch(f.agentID, f.now)
	headers := f.sign(b)

	result, err := f.handler.PushMetrics(headers, b)
	require.NoError(t, err)
	require.Equal(t, StatusRetry, result.Status)
}

type failingPublisher struct{}

func (failingPublisher) Publish(broker.Message) error { return errors.New("broker unavailable") }
func (failingPublisher) Close() error                 { return nil }
