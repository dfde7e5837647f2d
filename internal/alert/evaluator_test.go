package alert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-metrics/sentinel/internal/aggregate"
	"github.com/sentinel-metrics/sentinel/internal/rules"
)

func TestEvaluatorAlertLifecycleWithDuration(t *testing.T) {
	rulesStore := rules.NewStore()
	r := rulesStore.Create(rules.Rule{
		Name:          "high-cpu",
		AgentPattern:  "*",
		MetricName:    "cpu",
		Condition:     rules.ConditionGreaterThan,
		Threshold:     80,
		ForDurationMs: 5000,
		Enabled:       true,
	})

	series := aggregate.NewStore(60_000)
	states := NewStateStore()
	eval := NewEvaluator(rulesStore, series, states)

	series.Push("agent-1", "cpu", 1000, 90)
	events := eval.EvaluateAgent("agent-1", 1000)
	require.Empty(t, events, "still within for_duration, should be Pending")

	series.Push("agent-1", "cpu", 6000, 90)
	events = eval.EvaluateAgent("agent-1", 6000)
	require.Len(t, events, 1)
	require.Equal(t, EventFiring, events[0].Status)
	require.Equal(t, r.ID, events[0].RuleID)

	series.Push("agent-1", "cpu", 7000, 50)
	events = eval.EvaluateAgent("agent-1", 7000)
	require.Len(t, events, 1)
	require.Equal(t, EventResolved, events[0].Status)
}

func TestEvaluatorSkipsNonMatchingAgent(t *testing.T) {
	rulesStore := rules.NewStore()
	rulesStore.Create(rules.Rule{
		Name: "edge-only", AgentPattern: "edge-*", MetricName: "cpu",
		Condition: rules.ConditionGreaterThan, Threshold: 10, Enabled: true,
	})
	series := aggregate.NewStore(60_000)
	series.Push("core-1", "cpu", 1000, 99)

	eval := NewEvaluator(rulesStore, series, NewStateStore())
	events := eval.EvaluateAgent("core-1", 1000)
	require.Empty(t, events)
}

func TestEvaluatorSkipsWithoutSamples(t *testing.T) {
	rulesStore := rules.NewStore()
	rulesStore.Create(rules.Rule{
		Name: "no-data", AgentPattern: "*", MetricName: "mem",
		Condition: rules.ConditionGreaterThan, Threshold: 10, Enabled: true,
	})
	eval := NewEvaluator(rulesStore, aggregate.NewStore(60_000), NewStateStore())
	events := eval.EvaluateAgent("agent-1", 1000)
	require.Empty(t, events)
}
