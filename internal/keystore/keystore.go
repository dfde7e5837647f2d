// Package keystore resolves the agent's own HMAC signing secret through a
// small interface (§C.4 of SPEC_FULL.md, grounded on the original
// implementation's crates/agent/src/security/{keystore,file_keystore,
// os_keystore}.rs): rather than a bare string field, the agent asks a
// KeyStore to store/load/delete its secret by agent id.
package keystore

import "errors"

// ErrNotFound is returned by Load when no secret has been stored for the
// given agent id.
var ErrNotFound = errors.New("keystore: key not found")

// KeyStore is the agent-side secret persistence capability.
type KeyStore interface {
	Store(agentID string, secret []byte) error
	Load(agentID string) ([]byte, error)
	Delete(agentID string) error
}
