// Package notify implements the worker's notification dispatch (§4.13):
// a Notifier capability, several wire-format implementations, a
// retry-with-backoff wrapper, and the dead-letter sink for exhausted
// notifications.
package notify

import (
	"context"

	"github.com/sentinel-metrics/sentinel/internal/alert"
)

// Notifier is a single delivery channel capability (§4.13).
type Notifier interface {
	Name() string
	Send(ctx context.Context, event alert.Event) error
}

// DLQEntry is a notification that exhausted its retries (§3 "DLQ Entry").
type DLQEntry struct {
	ID           string
	AlertID      string
	NotifierName string
	Payload      []byte
	Error        string
	Attempts     int
	CreatedAtMs  int64
}

// DLQ is the narrow sink for notifications that exhausted their retries (§9
// "DLQ as cross-cutting sink"); RetryNotifier is its only writer here, and DB
// write failures do not go to it.
type DLQ interface {
	Insert(entry DLQEntry) error
	List() ([]DLQEntry, error)
	Delete(id string) error
}
