package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeenBeforeDropsDuplicatesSilently(t *testing.T) {
	now := int64(1000)
	d := New().WithClock(func() int64 { return now })

	require.False(t, d.SeenBefore("b1"))
	require.True(t, d.SeenBefore("b1"))
	require.True(t, d.SeenBefore("b1"))
	require.Equal(t, uint64(2), d.DuplicatesTotal())
	require.Equal(t, 1, d.Len())
}

func TestEvictOlderThan(t *testing.T) {
	now := int64(1000)
	d := New().WithClock(func() int64 { return now })
	d.SeenBefore("old")
	now = 5000
	d.SeenBefore("new")

	removed := d.EvictOlderThan(2000)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, d.Len())
}
