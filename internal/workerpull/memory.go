package workerpull

import (
	"context"
	"sync"

	"github.com/sentinel-metrics/sentinel/internal/broker"
)

// InMemoryConsumer is a test/dev Consumer backed by an in-memory slice; a
// delivery passed to Nack is requeued up to MaxDeliver times, mirroring a real
// broker's bounded-redelivery policy (§4.9) without needing an external bus.
type InMemoryConsumer struct {
	MaxDeliver int

	mu      sync.Mutex
	pending []pendingMsg
}

type pendingMsg struct {
	msg         broker.Message
	deliveryNum int
}

// NewInMemoryConsumer creates an empty consumer; feed it messages with Push.
func NewInMemoryConsumer(maxDeliver int) *InMemoryConsumer {
	if maxDeliver <= 0 {
		maxDeliver = 5
	}
	return &InMemoryConsumer{MaxDeliver: maxDeliver}
}

// Push enqueues a message as if it had just arrived on the stream.
func (c *InMemoryConsumer) Push(msg broker.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingMsg{msg: msg, deliveryNum: 1})
}

// Fetch implements Consumer. It removes up to maxMessages messages from the
// head of the queue; a fetched delivery returns to the queue only through
// Nack.
func (c *InMemoryConsumer) Fetch(ctx context.Context, maxMessages int) ([]Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := maxMessages
	if n > len(c.pending) {
		n = len(c.pending)
	}
	batch := c.pending[:n]
	c.pending = c.pending[n:]

	out := make([]Delivery, 0, n)
	for _, p := range batch {
		p := p
		out = append(out, Delivery{
			Message:     p.msg,
			MaxDeliver:  c.MaxDeliver,
			DeliveryNum: p.deliveryNum,
			ack:         func() {},
		})
	}
	return out, nil
}

// Nack puts a delivery back at the tail of the queue with an incremented
// delivery count, unless it has reached MaxDeliver, in which case it is
// dropped. Loop calls it through the Nacker interface when the pipeline
// fails, since the in-memory consumer has no background redelivery timer.
func (c *InMemoryConsumer) Nack(d Delivery) {
	if d.DeliveryNum >= d.MaxDeliver {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingMsg{msg: d.Message, deliveryNum: d.DeliveryNum + 1})
}

// Close implements Consumer; a no-op for the in-memory backend.
func (c *InMemoryConsumer) Close() error { return nil }

// Len reports how many messages are currently pending.
func (c *InMemoryConsumer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
