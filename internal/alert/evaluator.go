package alert

import (
	"github.com/google/uuid"

	"github.com/sentinel-metrics/sentinel/internal/aggregate"
	"github.com/sentinel-metrics/sentinel/internal/rules"
)

// Evaluator drives the alert state machine off the rolling aggregator for
// every enabled rule matching an agent (§4.10 "Aggregate & Evaluate").
type Evaluator struct {
	rulesStore *rules.Store
	series     *aggregate.Store
	states     *StateStore
}

// NewEvaluator wires an Evaluator against its collaborators.
func NewEvaluator(rulesStore *rules.Store, series *aggregate.Store, states *StateStore) *Evaluator {
	return &Evaluator{rulesStore: rulesStore, series: series, states: states}
}

// EvaluateAgent runs every enabled rule matching agentID against the
// aggregator's current window and advances alert state, returning any
// events to dispatch to the notifier.
func (e *Evaluator) EvaluateAgent(agentID string, nowMs int64) []Event {
	var events []Event
	for _, r := range e.rulesStore.ListEnabled() {
		if !r.MatchesAgent(agentID) {
			continue
		}
		avg, ok := e.series.Avg(agentID, r.MetricName)
		if !ok {
			continue
		}

		fp := Fingerprint(r.ID, agentID, r.MetricName)
		current := e.states.Get(fp)
		conditionMet := r.Condition.Evaluate(avg, r.Threshold)
		next, emitFiring, emitResolved := Transition(current, conditionMet, nowMs, r.ForDurationMs)
		e.states.Set(fp, next)

		switch {
		case emitFiring:
			events = append(events, Event{
				ID:          uuid.NewString(),
				Fingerprint: fp,
				RuleID:      r.ID,
				RuleName:    r.Name,
				AgentID:     agentID,
				MetricName:  r.MetricName,
				Severity:    string(r.Severity),
				Status:      EventFiring,
				Value:       avg,
				Threshold:   r.Threshold,
				FiredAtMs:   next.SinceMs,
				Annotations: r.Annotations,
			})
		case emitResolved:
			events = append(events, Event{
				ID:           uuid.NewString(),
				Fingerprint:  fp,
				RuleID:       r.ID,
				RuleName:     r.Name,
				AgentID:      agentID,
				MetricName:   r.MetricName,
				Severity:     string(r.Severity),
				Status:       EventResolved,
				Value:        avg,
				Threshold:    r.Threshold,
				ResolvedAtMs: next.SinceMs,
				Annotations:  r.Annotations,
			})
		}
	}
	return events
}
