package lifecycle

import (
	"context"
	"log/slog"
	"time"
)

// DefaultHeartbeatInterval applies until the coordinator sends one.
const DefaultHeartbeatInterval = 60 * time.Second

// Heartbeat publishes the node status periodically.
type Heartbeat struct {
	sm        *StateMachine
	publisher Publisher
	interval  time.Duration
	reset     chan time.Duration
	logger    *slog.Logger
}

func NewHeartbeat(sm *StateMachine, publisher Publisher, interval time.Duration, logger *slog.Logger) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Heartbeat{
		sm:        sm,
		publisher: publisher,
		interval:  interval,
		reset:     make(chan time.Duration, 1),
		logger:    logger,
	}
}

// SetInterval restarts the timer with d. The latest value wins when several
// arrive before the loop picks them up.
func (h *Heartbeat) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	for {
		select {
		case h.reset <- d:
			return
		default:
		}
		select {
		case <-h.reset:
		default:
		}
	}
}

// Run publishes a heartbeat immediately and then on every tick until ctx is
// done or the node terminates.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.beat(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-h.reset:
			if d != h.interval {
				h.interval = d
				ticker.Reset(d)
				h.logger.InfoContext(ctx, "heartbeat interval changed", "interval", d)
			}
		case <-ticker.C:
			if h.sm.Terminated() {
				return nil
			}
			h.beat(ctx)
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) {
	if err := h.publisher.Publish(ctx, h.sm.Heartbeat(ctx)); err != nil {
		h.logger.WarnContext(ctx, "heartbeat publish failed", "error", err)
	}
}
