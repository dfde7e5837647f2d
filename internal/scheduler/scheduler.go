// Package scheduler runs a collector on a jittered interval and forwards
// non-empty results onto a bounded queue to the batcher (§4.5).
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/sentinel-metrics/sentinel/internal/batch"
	"github.com/sentinel-metrics/sentinel/internal/collector"
)

// Clock abstracts time.Now and time.NewTimer for deterministic tests.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) *time.Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time                   { return time.Now() }
func (systemClock) NewTimer(d time.Duration) *time.Timer { return time.NewTimer(d) }

// Scheduler fires Collector.Collect every Interval·(1+U(0,Jitter)) and
// forwards non-empty results to Out. The queue is bounded; a full queue
// blocks the scheduler loop rather than dropping collected metrics, mirroring
// a collector whose producer is slower than its consumer.
type Scheduler struct {
	Interval time.Duration
	Jitter   float64 // fraction in [0,1]
	Collect  collector.Collector
	Out      chan<- []batch.Metric
	Logger   log.Logger

	clock Clock
	rand  func() float64
}

// New builds a Scheduler with the real system clock and RNG.
func New(interval time.Duration, jitter float64, c collector.Collector, out chan<- []batch.Metric, logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Scheduler{
		Interval: interval,
		Jitter:   jitter,
		Collect:  c,
		Out:      out,
		Logger:   logger,
		clock:    systemClock{},
		rand:     rand.Float64,
	}
}

// WithClock overrides the scheduler's clock and RNG; used in tests.
func (s *Scheduler) WithClock(c Clock, randFn func() float64) *Scheduler {
	s.clock = c
	s.rand = randFn
	return s
}

func (s *Scheduler) nextDelay() time.Duration {
	j := s.Jitter
	if j < 0 {
		j = 0
	}
	if j > 1 {
		j = 1
	}
	factor := 1 + s.rand()*j
	return time.Duration(float64(s.Interval) * factor)
}

// Run blocks until ctx is cancelled. Cancellation is observed while waiting
// for the next tick and while forwarding a result. Collect takes no context
// and runs synchronously, so a collection already underway when ctx is
// cancelled runs to completion before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		timer := s.clock.NewTimer(s.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		metrics, err := s.Collect.Collect()
		if err != nil {
			level.Warn(s.Logger).Log("msg", "collection failed", "err", err)
			continue
		}
		if len(metrics) == 0 {
			continue
		}

		select {
		case s.Out <- metrics:
		case <-ctx.Done():
			return
		}
	}
}
