package tsdb

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/sentinel-metrics/sentinel/internal/retry"
	"github.com/sentinel-metrics/sentinel/internal/transform"
)

// RetryInsertRows wraps Store.InsertRows with exponential back-off for
// transient errors (§4.10 "a retry wrapper classifies errors as transient
// ... permanent errors propagate"), using cenkalti/backoff/v4 rather than
// hand-rolled sleeps, with internal/retry.IsTransient deciding which errors
// are retried.
func RetryInsertRows(ctx context.Context, s *Store, rows []transform.MetricRow, maxElapsed backoff.BackOff, logger log.Logger) (int, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	var count int
	op := func() error {
		n, err := s.InsertRows(ctx, rows)
		if err != nil {
			if retry.IsTransient(err) {
				level.Warn(logger).Log("msg", "transient tsdb error, retrying", "err", err)
				return err
			}
			return backoff.Permanent(err)
		}
		count = n
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(maxElapsed, ctx)); err != nil {
		return 0, err
	}
	return count, nil
}

// DefaultBackOff returns the standard exponential back-off policy used for
// DB writes: cenkalti/backoff's exponential strategy bounded by a max
// elapsed time, reset per call.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	return b
}
