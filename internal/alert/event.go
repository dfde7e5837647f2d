package alert

// EventStatus is the status carried by an emitted alert event.
type EventStatus string

const (
	EventFiring   EventStatus = "firing"
	EventResolved EventStatus = "resolved"
)

// Event is emitted on a Firing or Resolved transition (§3 "Alert Event").
type Event struct {
	ID           string
	Fingerprint  string
	RuleID       string
	RuleName     string
	AgentID      string
	MetricName   string
	Severity     string
	Status       EventStatus
	Value        float64
	Threshold    float64
	FiredAtMs    int64
	ResolvedAtMs int64 // zero unless Status == EventResolved
	Annotations  map[string]string
}
