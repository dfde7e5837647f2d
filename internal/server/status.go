package server

// Status is the PushMetrics/SendHeartbeat application-level result (§6).
// It is distinct from transport-level auth/validation errors: those are
// returned as Go errors from the Handler and are expected to be surfaced as
// RPC failures (e.g. HTTP 401/400), not as a Status value.
type Status int

const (
	StatusOk Status = iota
	StatusRejected
	StatusRetry
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusRejected:
		return "Rejected"
	case StatusRetry:
		return "Retry"
	default:
		return "Unknown"
	}
}

// PushResult is the PushMetrics RPC's application-level response body.
type PushResult struct {
	Status  Status
	Message string
}
