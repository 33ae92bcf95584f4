package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pdpnode/pkg/platform/circuit"
	"pdpnode/pkg/platform/sentinel"
)

// BreakerStore stops querying a failing store. While the breaker is open,
// queries fail fast with sentinel.ErrUnavailable except for one probe per
// cooldown period; enough successful probes close the breaker again.
type BreakerStore struct {
	next     Store
	breaker  *circuit.Breaker
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastProbe time.Time
}

// BreakerOption configures a BreakerStore.
type BreakerOption func(*BreakerStore)

func WithCooldown(d time.Duration) BreakerOption {
	return func(b *BreakerStore) {
		b.cooldown = d
	}
}

func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(b *BreakerStore) {
		b.logger = logger
	}
}

func WithClock(now func() time.Time) BreakerOption {
	return func(b *BreakerStore) {
		b.now = now
	}
}

func NewBreaker(next Store, breaker *circuit.Breaker, opts ...BreakerOption) *BreakerStore {
	b := &BreakerStore{
		next:     next,
		breaker:  breaker,
		cooldown: time.Second,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BreakerStore) CountOperations(ctx context.Context, q CountQuery) CountResult {
	if !b.allow() {
		return CountFailed(sentinel.ErrUnavailable)
	}
	res := b.next.CountOperations(ctx, q)
	b.record(ctx, res.Status == QueryFailed)
	return res
}

func (b *BreakerStore) LatestOutcome(ctx context.Context, closedLoopName string) OutcomeResult {
	if !b.allow() {
		return OutcomeFailed(sentinel.ErrUnavailable)
	}
	res := b.next.LatestOutcome(ctx, closedLoopName)
	b.record(ctx, res.Status == QueryFailed)
	return res
}

func (b *BreakerStore) allow() bool {
	if !b.breaker.IsOpen() {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if now.Sub(b.lastProbe) < b.cooldown {
		return false
	}
	b.lastProbe = now
	return true
}

func (b *BreakerStore) record(ctx context.Context, failed bool) {
	if failed {
		if _, change := b.breaker.RecordFailure(); change.Opened {
			b.mu.Lock()
			b.lastProbe = b.now()
			b.mu.Unlock()
			b.logger.WarnContext(ctx, "history store circuit opened", "breaker", b.breaker.Name())
		}
		return
	}
	if _, change := b.breaker.RecordSuccess(); change.Closed {
		b.logger.InfoContext(ctx, "history store circuit closed", "breaker", b.breaker.Name())
	}
}
