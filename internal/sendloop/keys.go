package sendloop

import "sync"

// StaticKeySource is a KeySource holding one (key id, secret) pair, updatable
// at runtime (e.g. after a `key rotate` REST call returns a new key).
type StaticKeySource struct {
	mu     sync.RWMutex
	keyID  string
	secret []byte
}

// NewStaticKeySource creates a KeySource seeded with an initial key.
func NewStaticKeySource(keyID string, secret []byte) *StaticKeySource {
	return &StaticKeySource{keyID: keyID, secret: secret}
}

// CurrentKey implements KeySource.
func (s *StaticKeySource) CurrentKey() (string, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyID, s.secret
}

// Set updates the current key, e.g. after a successful rotation.
func (s *StaticKeySource) Set(keyID string, secret []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyID, s.secret = keyID, secret
}
