package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesAgentWildcard(t *testing.T) {
	r := Rule{AgentPattern: "*"}
	require.True(t, r.MatchesAgent("anything"))
}

func TestMatchesAgentPrefix(t *testing.T) {
	r := Rule{AgentPattern: "edge-*"}
	require.True(t, r.MatchesAgent("edge-1"))
	require.False(t, r.MatchesAgent("core-1"))
}

func TestMatchesAgentExact(t *testing.T) {
	r := Rule{AgentPattern: "agent-1"}
	require.True(t, r.MatchesAgent("agent-1"))
	require.False(t, r.MatchesAgent("agent-2"))
}

func TestConditionEvaluate(t *testing.T) {
	require.True(t, ConditionGreaterThan.Evaluate(90, 80))
	require.False(t, ConditionGreaterThan.Evaluate(70, 80))
	require.True(t, ConditionLessThanOrEqual.Evaluate(80, 80))
}

func TestStoreCRUD(t *testing.T) {
	s := NewStore().WithClock(func() int64 { return 1000 })

	r := s.Create(Rule{Name: "high-cpu", AgentPattern: "*", MetricName: "cpu", Condition: ConditionGreaterThan, Threshold: 80, Enabled: true})
	require.NotEmpty(t, r.ID)
	require.Equal(t, int64(1000), r.CreatedAtMs)

	got, ok := s.Get(r.ID)
	require.True(t, ok)
	require.Equal(t, r, got)

	r.Threshold = 90
	updated, ok := s.Update(r.ID, r)
	require.True(t, ok)
	require.Equal(t, 90.0, updated.Threshold)
	require.Equal(t, r.CreatedAtMs, updated.CreatedAtMs)

	require.Len(t, s.ListEnabled(), 1)
	require.True(t, s.Delete(r.ID))
	require.Len(t, s.List(), 0)
}
