// Package broker abstracts the bus the server publishes accepted batches
// onto, and the worker consumes from (§4.7). Two concrete implementations are
// provided: an in-memory one for tests/dev, and a Kafka-backed durable one
// using Shopify/sarama (the teacher's closest analogue to the SentinelRS
// original's NATS JetStream publisher — see DESIGN.md).
package broker

import "fmt"

// DefaultStreamName is the default stream/topic name (§6 "Broker subject
// layout"), overridable via configuration.
const DefaultStreamName = "SENTINEL_METRICS"

// Subject returns the per-agent routing key within the stream.
func Subject(agentID string) string {
	return fmt.Sprintf("sentinel.metrics.%s", agentID)
}

// Headers carries the metadata attached to a published message (§6).
type Headers struct {
	AgentID      string
	BatchID      string
	Signature    string
	KeyID        string
	ReceivedAtMs int64
}

// Message is one published unit: the wire-encoded batch bytes plus headers.
type Message struct {
	Subject string
	Payload []byte
	Headers Headers
}

// Publisher is the single operation every broker backend exposes (§4.7).
// Implementations are internally thread-safe and clone-shareable (§9).
type Publisher interface {
	Publish(msg Message) error
	Close() error
}
