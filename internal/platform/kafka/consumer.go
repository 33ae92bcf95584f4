package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Handler processes one record value. Errors are logged and the record is
// skipped.
type Handler func(ctx context.Context, value []byte) error

type pollClient interface {
	PollFetches(ctx context.Context) kgo.Fetches
}

// Consumer feeds records to a handler one at a time.
type Consumer struct {
	client pollClient
	logger *slog.Logger
}

func NewConsumer(client *kgo.Client, logger *slog.Logger) *Consumer {
	return newConsumer(client, logger)
}

func newConsumer(client pollClient, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, logger: logger}
}

// Run polls until ctx is done or the client is closed.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				continue
			}
			c.logger.WarnContext(ctx, "kafka fetch failed",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}
		fetches.EachRecord(func(r *kgo.Record) {
			if err := handle(ctx, r.Value); err != nil {
				c.logger.WarnContext(ctx, "control message rejected",
					"topic", r.Topic,
					"offset", r.Offset,
					"error", err,
				)
			}
		})
	}
}
