package notify

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/sentinel-metrics/sentinel/internal/alert"
)

// Clock returns now in epoch milliseconds; overridable for tests.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// Sleep is the delay function a RetryNotifier uses between attempts;
// overridable in tests to avoid real waits.
type Sleep func(time.Duration)

// RetryNotifier wraps a Notifier with bounded retries and an optional DLQ
// sink for exhausted attempts (§4.13).
type RetryNotifier struct {
	inner        Notifier
	maxRetries   int
	baseDelay    time.Duration
	dlq          DLQ
	clock        Clock
	sleep        Sleep
	logger       log.Logger
}

// NewRetryNotifier wraps inner with up to maxRetries additional attempts
// (maxRetries+1 sends total) and exponential back-off starting at
// baseDelay. dlq may be nil to disable dead-lettering.
func NewRetryNotifier(inner Notifier, maxRetries int, baseDelay time.Duration, dlq DLQ, logger log.Logger) *RetryNotifier {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &RetryNotifier{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		dlq:        dlq,
		clock:      systemClock,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// WithClock overrides the retry notifier's clock; used in tests.
func (r *RetryNotifier) WithClock(c Clock) *RetryNotifier {
	r.clock = c
	return r
}

// WithSleep overrides the retry notifier's sleep function; used in tests to
// avoid real time delays.
func (r *RetryNotifier) WithSleep(s Sleep) *RetryNotifier {
	r.sleep = s
	return r
}

// Name implements Notifier, delegating to the wrapped notifier.
func (r *RetryNotifier) Name() string { return r.inner.Name() }

// Send implements Notifier: it invokes the wrapped notifier up to
// maxRetries+1 times (§8 "Retry bounds"), writing to the DLQ on final
// failure when one is configured.
func (r *RetryNotifier) Send(ctx context.Context, event alert.Event) error {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		attempts++
		lastErr = r.inner.Send(ctx, event)
		if lastErr == nil {
			return nil
		}
		level.Warn(r.logger).Log("msg", "notifier send failed", "notifier", r.inner.Name(), "attempt", attempt, "err", lastErr)
		if attempt < r.maxRetries {
			delay := time.Duration(float64(r.baseDelay) * math.Pow(2, float64(attempt)))
			r.sleep(delay)
		}
	}

	if r.dlq != nil {
		payload, _ := json.Marshal(toWebhookPayload(event))
		entry := DLQEntry{
			ID:           uuid.NewString(),
			AlertID:      event.ID,
			NotifierName: r.inner.Name(),
			Payload:      payload,
			Error:        lastErr.Error(),
			Attempts:     attempts,
			CreatedAtMs:  r.clock(),
		}
		if err := r.dlq.Insert(entry); err != nil {
			level.Error(r.logger).Log("msg", "failed to write DLQ entry", "err", err)
		}
	}

	return lastErr
}
