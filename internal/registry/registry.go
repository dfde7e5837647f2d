// Package registry implements the server's agent identity store: hw_id →
// agent_id mapping, current/deprecated key rotation, and registration
// (§4.6, §3 "Agent Record").
package registry

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Key is a signing key with an opaque identifier.
type Key struct {
	KeyID  string `json:"key_id"`
	Secret []byte `json:"secret"`
}

// DeprecatedKey is a key retired by rotation, still honoured until its grace
// period elapses.
type DeprecatedKey struct {
	Key
	DeprecatedAtMs int64 `json:"deprecated_at_ms"`
}

// AgentRecord is the server's view of one agent (§3 "Agent Record").
type AgentRecord struct {
	AgentID        string          `json:"agent_id"`
	HwID           string          `json:"hw_id"`
	CurrentKey     Key             `json:"current_key"`
	DeprecatedKeys []DeprecatedKey `json:"deprecated_keys"`
	AgentVersion   string          `json:"agent_version"`
	RegisteredAtMs int64           `json:"registered_at_ms"`
}

// Clock returns now in epoch milliseconds; overridable for tests.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// Store is the concurrently read/written map from hw_id/agent_id to
// AgentRecord (§3 "Ownership": the Server exclusively owns it).
type Store struct {
	clock Clock

	mu        sync.RWMutex
	byAgentID map[string]*AgentRecord
	byHwID    map[string]string // hw_id -> agent_id
}

// NewStore creates an empty agent registry.
func NewStore() *Store {
	return &Store{clock: systemClock, byAgentID: map[string]*AgentRecord{}, byHwID: map[string]string{}}
}

// WithClock overrides the store's clock; used in tests.
func (s *Store) WithClock(c Clock) *Store {
	s.clock = c
	return s
}

func generateSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read on the standard reader never fails in practice;
		// fall back to a UUID-derived secret rather than panicking.
		u := uuid.New()
		return u[:]
	}
	return b
}

func generateKeyID() string {
	return "key-" + uuid.NewString()
}

// Register implements §4.6 "Registration": if hw_id already maps to an
// agent, its existing identity is returned; otherwise a fresh agent_id,
// secret, and key_id are minted and persisted.
func (s *Store) Register(hwID, agentVersion string) (agentID string, secretB64 string, isNew bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byHwID[hwID]; ok {
		rec := s.byAgentID[existingID]
		return rec.AgentID, base64.StdEncoding.EncodeToString(rec.CurrentKey.Secret), false
	}

	newID := "agent-" + uuid.NewString()
	rec := &AgentRecord{
		AgentID: newID,
		HwID:    hwID,
		CurrentKey: Key{
			KeyID:  generateKeyID(),
			Secret: generateSecret(),
		},
		AgentVersion:   agentVersion,
		RegisteredAtMs: s.clock(),
	}
	s.byAgentID[newID] = rec
	s.byHwID[hwID] = newID
	return rec.AgentID, base64.StdEncoding.EncodeToString(rec.CurrentKey.Secret), true
}

// Get returns a copy of the agent record for agentID.
func (s *Store) Get(agentID string) (AgentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byAgentID[agentID]
	if !ok {
		return AgentRecord{}, false
	}
	return *rec, true
}

// List returns a snapshot of all registered agents.
func (s *Store) List() []AgentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AgentRecord, 0, len(s.byAgentID))
	for _, rec := range s.byAgentID {
		out = append(out, *rec)
	}
	return out
}

// ResolveSecret implements the key-resolution step of §4.6's admission
// handler: it matches keyID against the current key, then against
// deprecated keys still inside gracePeriodMs, and reports whether either matched.
func (s *Store) ResolveSecret(agentID, keyID string, gracePeriodMs int64) (secret []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.byAgentID[agentID]
	if !exists {
		return nil, false
	}
	if keyID == rec.CurrentKey.KeyID {
		return rec.CurrentKey.Secret, true
	}
	now := s.clock()
	for _, dk := range rec.DeprecatedKeys {
		if dk.KeyID == keyID && now-dk.DeprecatedAtMs < gracePeriodMs {
			return dk.Secret, true
		}
	}
	return nil, false
}

// RotateKey implements the REST-triggered key rotation (§4.6): mints a new
// current key, demotes the old current key to deprecated with now() as its
// deprecation time, and returns the new key.
func (s *Store) RotateKey(agentID string) (Key, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byAgentID[agentID]
	if !ok {
		return Key{}, false
	}

	old := rec.CurrentKey
	rec.DeprecatedKeys = append(rec.DeprecatedKeys, DeprecatedKey{Key: old, DeprecatedAtMs: s.clock()})
	rec.CurrentKey = Key{KeyID: generateKeyID(), Secret: generateSecret()}
	return rec.CurrentKey, true
}

// ListKeys returns the current and deprecated keys for an agent.
func (s *Store) ListKeys(agentID string) (current Key, deprecated []DeprecatedKey, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.byAgentID[agentID]
	if !exists {
		return Key{}, nil, false
	}
	return rec.CurrentKey, append([]DeprecatedKey(nil), rec.DeprecatedKeys...), true
}

// DeleteDeprecatedKey removes one deprecated key by id, e.g. for `key delete`.
func (s *Store) DeleteDeprecatedKey(agentID, keyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byAgentID[agentID]
	if !ok {
		return false
	}
	for i, dk := range rec.DeprecatedKeys {
		if dk.KeyID == keyID {
			rec.DeprecatedKeys = append(rec.DeprecatedKeys[:i], rec.DeprecatedKeys[i+1:]...)
			return true
		}
	}
	return false
}

// PurgeExpiredKeys removes deprecated keys older than gracePeriodMs from
// every agent record. Intended to run on a background ticker (§4.6 "A
// background purge removes deprecated keys older than grace_period_ms").
func (s *Store) PurgeExpiredKeys(gracePeriodMs int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for _, rec := range s.byAgentID {
		kept := rec.DeprecatedKeys[:0]
		for _, dk := range rec.DeprecatedKeys {
			if now-dk.DeprecatedAtMs < gracePeriodMs {
				kept = append(kept, dk)
			} else {
				removed++
			}
		}
		rec.DeprecatedKeys = kept
	}
	return removed
}
