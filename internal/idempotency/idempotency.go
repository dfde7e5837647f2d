// Package idempotency implements the server's record of recently processed
// batch_ids (§4.8, §3 "Idempotency Entry"), used to make repeated submissions
// of the same Batch a no-op.
package idempotency

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Clock returns now in epoch milliseconds; overridable for tests.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

// Store is a concurrent batch_id -> received_at_ms map, sharded to keep
// contention local under high insert rates (§9 "Idempotency store growth").
type Store struct {
	clock      Clock
	shardCount int
	shards     []*shard

	hits   atomic.Uint64
	misses atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]int64
}

// NewStore creates a Store with the given shard count (a power of two is not
// required, but keeps the modulo hash balanced).
func NewStore(shardCount int) *Store {
	if shardCount <= 0 {
		shardCount = 16
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{entries: map[string]int64{}}
	}
	return &Store{clock: systemClock, shardCount: shardCount, shards: shards}
}

// WithClock overrides the store's clock; used in tests.
func (s *Store) WithClock(c Clock) *Store {
	s.clock = c
	return s
}

func (s *Store) shardFor(batchID string) *shard {
	var h uint32
	for i := 0; i < len(batchID); i++ {
		h = h*31 + uint32(batchID[i])
	}
	return s.shards[int(h)%s.shardCount]
}

// IsDuplicate reports whether batchID has already been marked processed.
func (s *Store) IsDuplicate(batchID string) bool {
	sh := s.shardFor(batchID)
	sh.mu.RLock()
	_, ok := sh.entries[batchID]
	sh.mu.RUnlock()
	if ok {
		s.hits.Inc()
	} else {
		s.misses.Inc()
	}
	return ok
}

// MarkProcessed records batchID as processed at the given time.
func (s *Store) MarkProcessed(batchID string, atMs int64) {
	sh := s.shardFor(batchID)
	sh.mu.Lock()
	sh.entries[batchID] = atMs
	sh.mu.Unlock()
}

// EvictOlderThan removes entries received before cutoffMs, bounding memory
// growth (§9 Open Question: "what retention policy should evict
// IdempotencyStore entries"). This implementation's decision: the caller runs
// it on a ticker with cutoff = now - retention; cmd/sentinel-server's purge
// ticker uses ten times the replay window as retention.
func (s *Store) EvictOlderThan(cutoffMs int64) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, ts := range sh.entries {
			if ts < cutoffMs {
				delete(sh.entries, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the total number of tracked entries across all shards.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}

// Stats returns cumulative hit/miss counters for IsDuplicate, exposed via the
// server's /metrics.
func (s *Store) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}
