package sendloop

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/sentinel-metrics/sentinel/internal/canon"
	"github.com/sentinel-metrics/sentinel/internal/retry"
	"github.com/sentinel-metrics/sentinel/internal/server"
	"github.com/sentinel-metrics/sentinel/internal/signer"
	"github.com/sentinel-metrics/sentinel/internal/wal"
	"github.com/sentinel-metrics/sentinel/internal/wire"
)

// KeySource resolves the signing key the loop should present on the next
// push: the agent's own view of its current key id and secret (§4.3).
type KeySource interface {
	CurrentKey() (keyID string, secret []byte)
}

// Loop drains a WAL to a Server role, one pass per RunCycle call (§4.4).
type Loop struct {
	WAL    *wal.WAL
	Client PushClient
	Keys   KeySource
	Policy retry.Policy
	Logger log.Logger

	sleep func(time.Duration)
}

// New builds a Loop with the real time.Sleep.
func New(w *wal.WAL, client PushClient, keys KeySource, policy retry.Policy, logger log.Logger) *Loop {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Loop{WAL: w, Client: client, Keys: keys, Policy: policy, Logger: logger, sleep: time.Sleep}
}

// WithSleep overrides the loop's sleep function; used in tests.
func (l *Loop) WithSleep(f func(time.Duration)) *Loop {
	l.sleep = f
	return l
}

// RunCycle executes one full pass over the WAL's unacked records (§4.4
// steps 1-4). It stops early when ctx is cancelled and always ends with
// save_meta.
func (l *Loop) RunCycle(ctx context.Context) error {
	records, err := l.WAL.IterUnacked()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if !l.sendOne(ctx, rec) {
			// should_retry exhausted or ctx cancelled: stop the cycle,
			// leaving this and later records unacked for next time.
			break
		}
	}

	return l.WAL.SaveMeta()
}

// sendOne drives the retry loop for a single record. It returns true if the
// cycle should continue to the next record (the record was acked, one way
// or another), false if the cycle must stop here.
func (l *Loop) sendOne(ctx context.Context, rec wal.Record) bool {
	b, err := wire.Unmarshal(rec.Payload)
	if err != nil {
		// A record that can't even decode can never succeed; ack it so it
		// doesn't wedge the cycle forever, the way a worker acks-and-drops
		// an undecodable message (§7).
		level.Error(l.Logger).Log("msg", "send loop dropping undecodable record", "record_id", rec.ID, "err", err)
		l.WAL.Ack(rec.ID)
		return true
	}

	attempt := 0
	for {
		keyID, secret := l.Keys.CurrentKey()
		canonical := canon.Bytes(b)
		sig := signer.Sign(secret, canonical)

		result, err := l.Client.PushMetrics(ctx, b, keyID, sig)
		if err != nil {
			level.Warn(l.Logger).Log("msg", "send loop transport error", "record_id", rec.ID, "attempt", attempt, "err", err)
			return l.backoffOrStop(ctx, &attempt)
		}

		switch result.Status {
		case server.StatusOk:
			l.WAL.Ack(rec.ID)
			return true
		case server.StatusRejected:
			level.Warn(l.Logger).Log("msg", "send loop record rejected", "record_id", rec.ID, "message", result.Message)
			l.WAL.Ack(rec.ID)
			return true
		default: // StatusRetry
			level.Debug(l.Logger).Log("msg", "send loop asked to retry", "record_id", rec.ID, "attempt", attempt)
			if !l.backoffOrStop(ctx, &attempt) {
				return false
			}
		}
	}
}

// backoffOrStop sleeps for the current attempt's delay and increments it, or
// reports that the cycle must stop if the policy has exhausted its attempts.
func (l *Loop) backoffOrStop(ctx context.Context, attempt *int) bool {
	if !l.Policy.ShouldRetry(*attempt) {
		return false
	}
	delay := l.Policy.DelayForAttempt(*attempt)
	*attempt++

	l.sleep(delay)
	return ctx.Err() == nil
}
