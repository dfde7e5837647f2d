package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotentByHwID(t *testing.T) {
	s := NewStore()
	id1, secret1, isNew1 := s.Register("hw-1", "1.0.0")
	require.True(t, isNew1)

	id2, secret2, isNew2 := s.Register("hw-1", "1.0.0")
	require.False(t, isNew2)
	require.Equal(t, id1, id2)
	require.Equal(t, secret1, secret2)
}

func TestRegisterDistinctHwIDsGetDistinctAgents(t *testing.T) {
	s := NewStore()
	id1, _, _ := s.Register("hw-1", "1.0.0")
	id2, _, _ := s.Register("hw-2", "1.0.0")
	require.NotEqual(t, id1, id2)
}

func TestRotationGraceWindow(t *testing.T) {
	now := int64(1_000_000)
	clk := func() int64 { return now }
	s := NewStore().WithClock(clk)

	agentID, _, _ := s.Register("hw-1", "1.0.0")
	rec, _ := s.Get(agentID)
	oldKeyID := rec.CurrentKey.KeyID
	oldSecret := rec.CurrentKey.Secret

	newKey, ok := s.RotateKey(agentID)
	require.True(t, ok)
	require.NotEqual(t, oldKeyID, newKey.KeyID)

	// Within grace period, old key still resolves.
	secret, ok := s.ResolveSecret(agentID, oldKeyID, 5000)
	require.True(t, ok)
	require.Equal(t, oldSecret, secret)

	// After grace period elapses, old key no longer resolves.
	now += 6000
	_, ok = s.ResolveSecret(agentID, oldKeyID, 5000)
	require.False(t, ok)

	// New key always resolves.
	_, ok = s.ResolveSecret(agentID, newKey.KeyID, 5000)
	require.True(t, ok)
}

func TestUnknownKeyIDRejected(t *testing.T) {
	s := NewStore()
	agentID, _, _ := s.Register("hw-1", "1.0.0")
	_, ok := s.ResolveSecret(agentID, "bogus", 5000)
	require.False(t, ok)
}

func TestPurgeExpiredKeys(t *testing.T) {
	now := int64(1_000_000)
	s := NewStore().WithClock(func() int64 { return now })
	agentID, _, _ := s.Register("hw-1", "1.0.0")
	s.RotateKey(agentID)
	now += 10_000
	removed := s.PurgeExpiredKeys(5000)
	require.Equal(t, 1, removed)
	_, deprecated, _ := s.ListKeys(agentID)
	require.Empty(t, deprecated)
}
