package batch

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current wall-clock time in milliseconds since epoch. It is
// an interface seam so tests can supply a deterministic clock.
type Clock func() int64

func systemClock() int64 {
	return time.Now().UnixMilli()
}

// Composer assembles collected metrics into immutable Batches with a
// monotone, agent-local sequence range (§4.2).
type Composer struct {
	agentID string
	clock   Clock

	mu  sync.Mutex
	seq uint64
}

// NewComposer creates a Composer seeded at sequence 0 for the given agent.
func NewComposer(agentID string) *Composer {
	return &Composer{agentID: agentID, clock: systemClock}
}

// WithClock overrides the composer's clock; used in tests.
func (c *Composer) WithClock(clk Clock) *Composer {
	c.clock = clk
	return c
}

// Compose assigns a monotone (seq_start, seq_end) pair, stamps a fresh UUIDv4
// batch_id, and records the creation time. The returned Batch must be treated
// as immutable until it has been signed, encoded, and acknowledged.
func (c *Composer) Compose(metrics []Metric) *Batch {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.seq
	end := start + uint64(len(metrics))
	c.seq = end

	return &Batch{
		AgentID:     c.agentID,
		BatchID:     uuid.NewString(),
		SeqStart:    start,
		SeqEnd:      end,
		CreatedAtMs: c.clock(),
		Metrics:     metrics,
		Meta:        map[string]string{},
	}
}
