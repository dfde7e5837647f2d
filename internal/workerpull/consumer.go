// Package workerpull implements the worker's pull loop (§4.9): fetch with
// explicit-ack semantics and bounded redelivery, decode, process, ack or
// leave unacked for redelivery.
package workerpull

import (
	"context"

	"github.com/sentinel-metrics/sentinel/internal/broker"
)

// Delivery is one fetched message paired with the means to ack it.
// MaxDeliver mirrors how many times the broker will attempt redelivery
// before giving up on this message (§4.9 "bounded redelivery").
type Delivery struct {
	Message     broker.Message
	MaxDeliver  int
	DeliveryNum int
	ack         func()
}

// Ack marks the delivery as processed; the broker will not redeliver it.
func (d Delivery) Ack() {
	if d.ack != nil {
		d.ack()
	}
}

// Consumer is the pull-side counterpart to broker.Publisher: fetch up to n
// messages, each carrying its own explicit ack.
type Consumer interface {
	Fetch(ctx context.Context, maxMessages int) ([]Delivery, error)
	Close() error
}
