package broker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryPublisherAccumulates(t *testing.T) {
	p := NewInMemoryPublisher()
	require.NoError(t, p.Publish(Message{Subject: Subject("agent-1"), Payload: []byte("a")}))
	require.NoError(t, p.Publish(Message{Subject: Subject("agent-1"), Payload: []byte("b")}))
	require.Equal(t, 2, p.Count())
	require.Equal(t, "sentinel.metrics.agent-1", p.Messages()[0].Subject)
}
