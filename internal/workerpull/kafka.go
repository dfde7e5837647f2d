package workerpull

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shopify/sarama"

	"github.com/sentinel-metrics/sentinel/internal/broker"
)

// KafkaConfig configures the durable-stream Consumer, mirroring
// broker.KafkaConfig on the publish side.
type KafkaConfig struct {
	Brokers    []string
	Topic      string // defaults to broker.DefaultStreamName
	GroupID    string
	MaxDeliver int // defaults to 5, matching §4.9's example
}

// KafkaConsumer is the durable-stream Consumer backend, built on sarama's
// consumer-group API the same way broker.KafkaPublisher is built on its
// async producer API. A message is only considered delivered once its
// offset is marked and the session commits; leaving a delivery unacked
// means its offset is never marked, so the next Consume call for that
// partition re-delivers it, matching "leave unacked ... so the broker
// redelivers" (§4.9).
type KafkaConsumer struct {
	group      sarama.ConsumerGroup
	topics     []string
	maxDeliver int

	ctx    context.Context
	cancel context.CancelFunc
	out    chan Delivery

	mu         sync.Mutex
	deliveries map[string]int // "partition:offset" -> delivery count
}

// NewKafkaConsumer joins the consumer group and starts pulling in the
// background; Fetch drains the internal buffer fed by the group session.
func NewKafkaConsumer(cfg KafkaConfig) (*KafkaConsumer, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = broker.DefaultStreamName
	}
	maxDeliver := cfg.MaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = 5
	}

	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("workerpull: dial kafka consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &KafkaConsumer{
		group:      group,
		topics:     []string{topic},
		maxDeliver: maxDeliver,
		ctx:        ctx,
		cancel:     cancel,
		out:        make(chan Delivery, 256),
		deliveries: map[string]int{},
	}

	go c.run()
	return c, nil
}

func (c *KafkaConsumer) run() {
	handler := &groupHandler{parent: c}
	for c.ctx.Err() == nil {
		if err := c.group.Consume(c.ctx, c.topics, handler); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			continue
		}
	}
}

// Fetch drains up to maxMessages buffered deliveries, blocking until at
// least one is available or ctx is cancelled.
func (c *KafkaConsumer) Fetch(ctx context.Context, maxMessages int) ([]Delivery, error) {
	var out []Delivery
	select {
	case d := <-c.out:
		out = append(out, d)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(out) < maxMessages {
		select {
		case d := <-c.out:
			out = append(out, d)
		default:
			return out, nil
		}
	}
	return out, nil
}

// Close stops the background consume loop and leaves the group.
func (c *KafkaConsumer) Close() error {
	c.cancel()
	return c.group.Close()
}

type groupHandler struct {
	parent *KafkaConsumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		key := fmt.Sprintf("%d:%d", msg.Partition, msg.Offset)

		h.parent.mu.Lock()
		h.parent.deliveries[key]++
		count := h.parent.deliveries[key]
		h.parent.mu.Unlock()

		if count > h.parent.maxDeliver {
			// Redelivery exhausted: drop and mark so the group moves on,
			// matching "after exhaustion the broker drops ... per its
			// policy" (§4.9).
			session.MarkMessage(msg, "")
			h.parent.mu.Lock()
			delete(h.parent.deliveries, key)
			h.parent.mu.Unlock()
			continue
		}

		delivery := Delivery{
			Message: broker.Message{
				Subject: string(msg.Key),
				Payload: msg.Value,
				Headers: headersFromKafka(msg.Headers),
			},
			MaxDeliver:  h.parent.maxDeliver,
			DeliveryNum: count,
			ack: func() {
				session.MarkMessage(msg, "")
				h.parent.mu.Lock()
				delete(h.parent.deliveries, key)
				h.parent.mu.Unlock()
			},
		}

		select {
		case h.parent.out <- delivery:
		case <-session.Context().Done():
			return nil
		}
	}
	return nil
}

func headersFromKafka(hdrs []*sarama.RecordHeader) broker.Headers {
	var h broker.Headers
	for _, rh := range hdrs {
		switch string(rh.Key) {
		case "X-Agent-Id":
			h.AgentID = string(rh.Value)
		case "X-Batch-Id":
			h.BatchID = string(rh.Value)
		case "X-Signature":
			h.Signature = string(rh.Value)
		case "X-Key-Id":
			h.KeyID = string(rh.Value)
		}
	}
	return h
}
