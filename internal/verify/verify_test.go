package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/broker"
	"github.com/sentinel-metrics/sentinel/internal/canon"
	"github.com/sentinel-metrics/sentinel/internal/signer"
)

type fakeProvider map[string][]byte

func (p fakeProvider) Secret(agentID, keyID string) ([]byte, bool) {
	s, ok := p[agentID+"/"+keyID]
	return s, ok
}

func sampleBatch() *batch.Batch {
	return &batch.Batch{AgentID: "agent-1", BatchID: "b1", Metrics: []batch.Metric{
		{Name: "cpu", Kind: batch.KindGauge, Double: 1.0},
	}}
}

func TestVerifyValid(t *testing.T) {
	b := sampleBatch()
	secret := []byte("s1")
	sig := signer.Sign(secret, canon.Bytes(b))
	provider := fakeProvider{"agent-1/k1": secret}

	result := Verify(provider, b, broker.Headers{KeyID: "k1", Signature: sig})
	require.Equal(t, ResultValid, result)
}

func TestVerifyInvalidSignature(t *testing.T) {
	b := sampleBatch()
	provider := fakeProvider{"agent-1/k1": []byte("s1")}
	result := Verify(provider, b, broker.Headers{KeyID: "k1", Signature: "tampered"})
	require.Equal(t, ResultInvalid, result)
}

func TestVerifySkippedWhenNoSignature(t *testing.T) {
	b := sampleBatch()
	provider := fakeProvider{"agent-1/k1": []byte("s1")}
	result := Verify(provider, b, broker.Headers{KeyID: "k1"})
	require.Equal(t, ResultSkipped, result)
}

func TestVerifySkippedWhenNoSecret(t *testing.T) {
	b := sampleBatch()
	provider := fakeProvider{}
	result := Verify(provider, b, broker.Headers{KeyID: "k1", Signature: "anything"})
	require.Equal(t, ResultSkipped, result)
}
