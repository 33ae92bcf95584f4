// Package kafka carries control messages between the node and the
// coordinator.
package kafka

import (
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Config selects the brokers and topic used by the control loop.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	ClientID string
}

func (c Config) brokers() []string {
	out := make([]string, 0, len(c.Brokers))
	for _, b := range c.Brokers {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate rejects incomplete configurations.
func (c Config) Validate() error {
	if len(c.brokers()) == 0 {
		return fmt.Errorf("kafka brokers required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("kafka topic required")
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return fmt.Errorf("kafka group id required")
	}
	return nil
}

// NewClient creates a client that consumes the topic in the configured
// group and produces to it by default.
func NewClient(cfg Config, opts ...kgo.Opt) (*kgo.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.brokers()...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	}
	if cfg.ClientID != "" {
		base = append(base, kgo.ClientID(cfg.ClientID))
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}
