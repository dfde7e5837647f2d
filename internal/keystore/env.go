package keystore

import (
	"encoding/base64"
	"fmt"
	"os"
)

// EnvKeyStore resolves the agent's secret from environment variables
// (§6 "SENTINEL_AGENT_SECRET / SENTINEL_MASTER_KEY"): SENTINEL_AGENT_SECRET
// is tried first (base64), falling back to SENTINEL_MASTER_KEY. It is
// read-only: Store and Delete are unsupported, matching a deployment where
// the secret is injected by the orchestrator rather than minted locally.
type EnvKeyStore struct{}

// NewEnvKeyStore returns the environment-variable-backed KeyStore.
func NewEnvKeyStore() EnvKeyStore { return EnvKeyStore{} }

// Load decodes SENTINEL_AGENT_SECRET (or SENTINEL_MASTER_KEY as fallback) as
// base64 and returns it regardless of agentID, since the environment holds
// exactly one secret per process.
func (EnvKeyStore) Load(agentID string) ([]byte, error) {
	raw, ok := os.LookupEnv("SENTINEL_AGENT_SECRET")
	if !ok || raw == "" {
		raw, ok = os.LookupEnv("SENTINEL_MASTER_KEY")
	}
	if !ok || raw == "" {
		return nil, fmt.Errorf("keystore: neither SENTINEL_AGENT_SECRET nor SENTINEL_MASTER_KEY set: %w", ErrNotFound)
	}
	secret, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Accept a raw (non-base64) secret too, for operator convenience.
		return []byte(raw), nil
	}
	return secret, nil
}

// Store is unsupported: the environment is read-only from the agent's
// perspective.
func (EnvKeyStore) Store(agentID string, secret []byte) error {
	return fmt.Errorf("keystore: env-backed store does not support Store")
}

// Delete is unsupported for the same reason as Store.
func (EnvKeyStore) Delete(agentID string) error {
	return fmt.Errorf("keystore: env-backed store does not support Delete")
}
