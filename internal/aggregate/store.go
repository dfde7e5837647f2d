package aggregate

import (
	"fmt"
	"sync"
)

// Store is the concurrent (agent_id, name) -> RollingSeries map (§4.11
// "AggregatorStore"). It is not sharded: a single RWMutex guards the map, and
// each series is created lazily on its first Push.
type Store struct {
	windowMs int64

	mu     sync.RWMutex
	series map[string]*RollingSeries
}

// NewStore creates an aggregator store whose series all share windowMs.
func NewStore(windowMs int64) *Store {
	return &Store{windowMs: windowMs, series: map[string]*RollingSeries{}}
}

func key(agentID, name string) string {
	return fmt.Sprintf("%s\x00%s", agentID, name)
}

// Push records a sample for (agentID, name), creating its series on first
// use.
func (s *Store) Push(agentID, name string, nowMs int64, value float64) {
	k := key(agentID, name)

	s.mu.RLock()
	series, ok := s.series[k]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		series, ok = s.series[k]
		if !ok {
			series = NewRollingSeries(s.windowMs)
			s.series[k] = series
		}
		s.mu.Unlock()
	}
	series.Push(nowMs, value)
}

// Avg returns the current window average for (agentID, name), if any
// samples are present.
func (s *Store) Avg(agentID, name string) (float64, bool) {
	s.mu.RLock()
	series, ok := s.series[key(agentID, name)]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return series.Avg()
}

// Len returns the number of distinct (agent, name) series tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}
