package broker

import "sync"

// InMemoryPublisher appends every published message to a shared slice under
// a mutex; publish always succeeds (§4.7 "In-memory (test/dev)").
type InMemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
}

// NewInMemoryPublisher creates an empty in-memory publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

// Publish implements Publisher.
func (p *InMemoryPublisher) Publish(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

// Close implements Publisher. It is a no-op for the in-memory backend.
func (p *InMemoryPublisher) Close() error { return nil }

// Messages returns a snapshot of everything published so far, for assertions
// in tests.
func (p *InMemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Count returns the number of messages published so far.
func (p *InMemoryPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}
