package broker

import (
	"fmt"
	"sync"

	"github.com/Shopify/sarama"
)

// KafkaConfig configures the durable stream publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string // defaults to DefaultStreamName
}

// KafkaPublisher is the durable-stream Publisher backend (§4.7 "Durable
// stream"). It uses an async producer and explicitly awaits the broker's ack
// on the Successes/Errors channel before reporting Publish as done — the
// "double-await" pattern called for in §4.7 (enqueue, then await ack),
// analogous to the SentinelRS original's NATS JetStream publish-and-await.
type KafkaPublisher struct {
	topic    string
	producer sarama.AsyncProducer

	// mu serialises Publish calls so each caller reads back the ack for the
	// message it just sent rather than racing another goroutine's ack on the
	// shared Successes/Errors channels.
	mu sync.Mutex
}

// NewKafkaPublisher dials brokers and returns a ready-to-use publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultStreamName
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("broker: dial kafka: %w", err)
	}

	return &KafkaPublisher{topic: topic, producer: producer}, nil
}

// Publish enqueues msg on the agent's subject (used as the partition key so
// per-agent ordering is preserved, §5 "Ordering guarantees") and blocks until
// the broker acknowledges it or reports an error.
func (p *KafkaPublisher) Publish(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pm := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.Subject),
		Value: sarama.ByteEncoder(msg.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("X-Agent-Id"), Value: []byte(msg.Headers.AgentID)},
			{Key: []byte("X-Batch-Id"), Value: []byte(msg.Headers.BatchID)},
			{Key: []byte("X-Signature"), Value: []byte(msg.Headers.Signature)},
			{Key: []byte("X-Key-Id"), Value: []byte(msg.Headers.KeyID)},
			{Key: []byte("X-Received-At"), Value: []byte(fmt.Sprintf("%d", msg.Headers.ReceivedAtMs))},
		},
	}

	// First await: hand the message to the producer's input channel.
	p.producer.Input() <- pm

	// Second await: block on the broker's ack (or error) for this message.
	select {
	case <-p.producer.Successes():
		return nil
	case err := <-p.producer.Errors():
		return fmt.Errorf("broker: publish failed: %w", err.Err)
	}
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
