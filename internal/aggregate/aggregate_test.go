package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollingSeriesEvictsOutOfWindow(t *testing.T) {
	s := NewRollingSeries(5000)
	s.Push(1000, 10)
	s.Push(4000, 20)
	s.Push(9000, 30) // evicts ts=1000 (9000-5000=4000 cutoff, 1000 < 4000)

	require.Equal(t, 2, s.Count())
	avg, ok := s.Avg()
	require.True(t, ok)
	require.Equal(t, 25.0, avg)
}

func TestRollingSeriesMinMaxLast(t *testing.T) {
	s := NewRollingSeries(10_000)
	s.Push(1000, 5)
	s.Push(2000, 15)
	s.Push(3000, 10)

	min, _ := s.Min()
	max, _ := s.Max()
	last, _ := s.Last()
	require.Equal(t, 5.0, min)
	require.Equal(t, 15.0, max)
	require.Equal(t, 10.0, last)
}

func TestRollingSeriesEmpty(t *testing.T) {
	s := NewRollingSeries(1000)
	_, ok := s.Avg()
	require.False(t, ok)
}

func TestStorePushAndAvg(t *testing.T) {
	store := NewStore(10_000)
	store.Push("agent-1", "cpu", 1000, 50)
	store.Push("agent-1", "cpu", 2000, 70)
	store.Push("agent-2", "cpu", 1000, 10)

	avg, ok := store.Avg("agent-1", "cpu")
	require.True(t, ok)
	require.Equal(t, 60.0, avg)
	require.Equal(t, 2, store.Len())

	_, ok = store.Avg("agent-3", "cpu")
	require.False(t, ok)
}
