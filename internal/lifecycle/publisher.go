package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"pdpnode/internal/lifecycle/models"
)

// Sender delivers a keyed payload to the coordinator topic.
type Sender interface {
	Send(ctx context.Context, key string, value []byte) error
}

// BusPublisher publishes status messages as JSON keyed by node name.
type BusPublisher struct {
	sender Sender
}

func NewBusPublisher(sender Sender) *BusPublisher {
	return &BusPublisher{sender: sender}
}

func (p *BusPublisher) Publish(ctx context.Context, status models.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return p.sender.Send(ctx, status.Name, data)
}
