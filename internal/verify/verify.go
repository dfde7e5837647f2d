// Package verify implements the worker pipeline's verify step (§4.10):
// recomputing canonical bytes for a received batch and checking its
// signature against whatever secret provider backs the worker.
package verify

import (
	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/canon"
	"github.com/sentinel-metrics/sentinel/internal/signer"
)

// Result is the verify step's outcome.
type Result int

const (
	// ResultValid: signature present and matches.
	ResultValid Result = iota
	// ResultInvalid: signature present but does not match; caller discards
	// the batch.
	ResultInvalid
	// ResultSkipped: no secret or no signature available; whether to drop
	// or proceed is left to the caller's configuration (§4.10).
	ResultSkipped
)

// SecretProvider resolves the signing secret for an agent and key id,
// mirroring the admission handler's registry.Store.ResolveSecret (§4.10
// "via whatever secret provider backs the worker").
type SecretProvider interface {
	Secret(agentID, keyID string) ([]byte, bool)
}

// Verify recomputes canonical bytes for b and checks signature against the
// secret resolved for (b.AgentID, headers.KeyID).
func Verify(provider SecretProvider, b *batch.Batch, headers broker.Headers) Result {
	if headers.Signature == "" {
		return ResultSkipped
	}
	secret, ok := provider.Secret(b.AgentID, headers.KeyID)
	if !ok {
		return ResultSkipped
	}
	if signer.Verify(secret, canon.Bytes(b), headers.Signature) {
		return ResultValid
	}
	return ResultInvalid
}
