package idempotency

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkAndIsDuplicate(t *testing.T) {
	s := NewStore(4)
	require.False(t, s.IsDuplicate("b1"))
	s.MarkProcessed("b1", 100)
	require.True(t, s.IsDuplicate("b1"))
}

func TestEvictOlderThan(t *testing.T) {
	s := NewStore(4)
	s.MarkProcessed("old", 100)
	s.MarkProcessed("new", 9000)
	removed := s.EvictOlderThan(5000)
	require.Equal(t, 1, removed)
	require.False(t, s.IsDuplicate("old"))
	require.True(t, s.IsDuplicate("new"))
}

func TestLen(t *testing.T) {
	s := NewStore(4)
	s.MarkProcessed("a", 1)
	s.MarkProcessed("b", 2)
	require.Equal(t, 2, s.Len())
}
