// Package dedup implements the worker's in-process BatchDedup (§4.10):
// a concurrent batch_id -> first_seen_ms map with age-based eviction,
// separate from the server-side idempotency store since the worker sees
// batches after broker redelivery, not just after client retry.
package dedup

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Clock returns now in epoch milliseconds; overridable for tests.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// BatchDedup tracks batch_ids the worker has already processed.
type BatchDedup struct {
	clock Clock

	mu          sync.RWMutex
	firstSeenMs map[string]int64

	duplicatesTotal atomic.Uint64
}

// New creates an empty BatchDedup.
func New() *BatchDedup {
	return &BatchDedup{clock: systemClock, firstSeenMs: map[string]int64{}}
}

// WithClock overrides the dedup table's clock; used in tests.
func (d *BatchDedup) WithClock(c Clock) *BatchDedup {
	d.clock = c
	return d
}

// SeenBefore reports whether batchID has already been recorded, and if not,
// records it as first seen now. Implemented as a single check-and-insert so
// the caller need not separately call is_duplicate then mark_processed.
func (d *BatchDedup) SeenBefore(batchID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.firstSeenMs[batchID]; ok {
		d.duplicatesTotal.Inc()
		return true
	}
	d.firstSeenMs[batchID] = d.clock()
	return false
}

// EvictOlderThan removes entries first seen before cutoffMs.
func (d *BatchDedup) EvictOlderThan(cutoffMs int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for id, ts := range d.firstSeenMs {
		if ts < cutoffMs {
			delete(d.firstSeenMs, id)
			removed++
		}
	}
	return removed
}

// DuplicatesTotal returns the cumulative count of duplicates observed.
func (d *BatchDedup) DuplicatesTotal() uint64 {
	return d.duplicatesTotal.Load()
}

// Len returns the number of tracked batch_ids.
func (d *BatchDedup) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.firstSeenMs)
}
