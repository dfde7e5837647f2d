// Package server implements the admission path a Server role exposes to
// Agents (§4.6): verifying a signed batch, rejecting replays and duplicates,
// and publishing accepted batches onto the broker.
package server

import (
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/canon"
	"github.com/sentinel-metrics/sentinel/internal/idempotency"
	"github.com/sentinel-metrics/sentinel/internal/registry"
	"github.com/sentinel-metrics/sentinel/internal/signer"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

// Clock returns the current time as Unix milliseconds; overridable in tests.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// Config holds the admission handler's tunables (§4.6, §6).
type Config struct {
	// ReplayWindowMs bounds how far a batch's created_at_ms may drift from
	// now before it is rejected as a replay. Zero disables the check.
	ReplayWindowMs int64
	// GracePeriodMs is how long a rotated-out key is still honored (§4.3).
	GracePeriodMs int64
}

// PushHeaders carries the out-of-band metadata a transport (HTTP, gRPC)
// extracts before decoding the batch body (§4.6 step 1).
type PushHeaders struct {
	AgentID   string
	KeyID     string
	Signature string
}

// Handler implements the PushMetrics admission procedure (§4.6).
type Handler struct {
	agents    *registry.Store
	idem      *idempotency.Store
	publisher broker.Publisher
	cfg       Config
	clock     Clock
	logger    log.Logger
	metrics   *serverMetrics
}

// NewHandler wires the admission handler's collaborators.
func NewHandler(agents *registry.Store, idem *idempotency.Store, publisher broker.Publisher, cfg Config, logger log.Logger, reg prometheus.Registerer) *Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Handler{
		agents:    agents,
		idem:      idem,
		publisher: publisher,
		cfg:       cfg,
		clock:     systemClock,
		logger:    logger,
		metrics:   newServerMetrics(reg),
	}
}

// WithClock overrides the handler's clock, for tests.
func (h *Handler) WithClock(c Clock) *Handler {
	h.clock = c
	return h
}

// Close releases the handler's registered metrics.
func (h *Handler) Close() {
	h.metrics.Unregister()
}

// PushMetrics runs the nine-step admission procedure against a decoded
// batch. A non-nil error means the request never reached the
// Ok/Rejected/Retry decision and should be surfaced as a transport failure
// (ErrUnauthenticated -> 401, ErrInvalidArgument -> 400). A nil error always
// carries a PushResult.
func (h *Handler) PushMetrics(headers PushHeaders, b *batch.Batch) (PushResult, error) {
	// Step 1: required headers.
	if headers.AgentID == "" || headers.Signature == "" {
		level.Warn(h.logger).Log("msg", "admission rejected missing headers")
		h.metrics.unauthorizedTotal.Inc()
		return PushResult{}, ErrUnauthenticated
	}

	// Step 2: agent lookup.
	agent, ok := h.agents.Get(headers.AgentID)
	if !ok {
		level.Warn(h.logger).Log("msg", "admission rejected unknown agent", "agent_id", headers.AgentID)
		h.metrics.unauthorizedTotal.Inc()
		return PushResult{}, ErrUnauthenticated
	}

	// Step 3: resolve the signing secret for the claimed key id.
	secret, ok := h.agents.ResolveSecret(agent.AgentID, headers.KeyID, h.cfg.GracePeriodMs)
	if !ok {
		level.Warn(h.logger).Log("msg", "admission rejected unknown or expired key", "agent_id", headers.AgentID, "key_id", headers.KeyID)
		h.metrics.unauthorizedTotal.Inc()
		return PushResult{}, ErrUnauthenticated
	}

	// Step 4: replay window.
	now := h.clock()
	if h.cfg.ReplayWindowMs > 0 && b.CreatedAtMs > 0 {
		drift := now - b.CreatedAtMs
		if drift < 0 {
			drift = -drift
		}
		if drift > h.cfg.ReplayWindowMs {
			level.Warn(h.logger).Log("msg", "admission rejected batch outside replay window", "agent_id", headers.AgentID, "drift_ms", drift)
			h.metrics.unauthorizedTotal.Inc()
			return PushResult{}, ErrUnauthenticated
		}
	}

	// Step 5: recompute the canonical bytes and verify the signature.
	canonical := canon.Bytes(b)
	if !signer.Verify(secret, canonical, headers.Signature) {
		level.Warn(h.logger).Log("msg", "admission rejected bad signature", "agent_id", headers.AgentID)
		h.metrics.unauthorizedTotal.Inc()
		return PushResult{}, ErrUnauthenticated
	}

	// Step 6: batch id required to dedup against.
	if b.BatchID == "" {
		level.Warn(h.logger).Log("msg", "admission rejected batch with empty batch_id", "agent_id", headers.AgentID)
		h.metrics.invalidTotal.Inc()
		return PushResult{}, ErrInvalidArgument
	}

	// Step 7: idempotency check — a duplicate is acknowledged without
	// republishing.
	if h.idem.IsDuplicate(b.BatchID) {
		level.Debug(h.logger).Log("msg", "admission saw duplicate batch", "agent_id", headers.AgentID, "batch_id", b.BatchID)
		h.metrics.duplicateTotal.Inc()
		return PushResult{Status: StatusOk, Message: "duplicate"}, nil
	}

	// Step 8: publish onto the broker.
	msg := broker.Message{
		Subject: broker.Subject(b.AgentID),
		Payload: wire.Marshal(b),
		Headers: broker.Headers{
			AgentID:      b.AgentID,
			BatchID:      b.BatchID,
			Signature:    headers.Signature,
			KeyID:        headers.KeyID,
			ReceivedAtMs: now,
		},
	}
	if err := h.publisher.Publish(msg); err != nil {
		level.Error(h.logger).Log("msg", "admission failed to publish batch", "agent_id", headers.AgentID, "batch_id", b.BatchID, "err", err)
		h.metrics.retryTotal.Inc()
		return PushResult{Status: StatusRetry, Message: "broker unavailable"}, nil
	}

	// Step 9: mark processed so a retried send of the same batch_id is
	// recognized as a duplicate.
	h.idem.MarkProcessed(b.BatchID, now)
	h.metrics.acceptedTotal.Inc()
	return PushResult{Status: StatusOk, Message: "accepted"}, nil
}
