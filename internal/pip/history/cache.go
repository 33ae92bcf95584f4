package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "pdpnode:history:"

// CachedStore is a read-through Redis cache in front of another Store.
// Found and NotFound answers are cached for ttl; failures never are. Redis
// errors fall through to the wrapped store.
type CachedStore struct {
	next   Store
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func NewCached(next Store, client redis.UniversalClient, ttl time.Duration, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) CountOperations(ctx context.Context, q CountQuery) CountResult {
	window := int64(q.Until.Sub(q.Since) / time.Second)
	key := cacheKey("count", q.Actor, q.Operation, q.Target, strconv.FormatInt(window, 10))

	n, err := c.client.Get(ctx, key).Int64()
	if err == nil {
		return CountFound(n)
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "history cache read failed", "key", key, "error", err)
	}

	res := c.next.CountOperations(ctx, q)
	if res.Status == Found {
		c.store(ctx, key, res.Count)
	}
	return res
}

func (c *CachedStore) LatestOutcome(ctx context.Context, closedLoopName string) OutcomeResult {
	key := cacheKey("outcome", closedLoopName)

	outcome, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if outcome == "" {
			return OutcomeNotFound()
		}
		return OutcomeFound(outcome)
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "history cache read failed", "key", key, "error", err)
	}

	res := c.next.LatestOutcome(ctx, closedLoopName)
	switch res.Status {
	case Found:
		c.store(ctx, key, res.Outcome)
	case NotFound:
		c.store(ctx, key, "")
	}
	return res
}

// cacheKey length-prefixes every part so values containing the separator
// cannot collide with another tuple.
func cacheKey(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(cacheKeyPrefix)
	b.WriteString(kind)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%d:%s", len(p), p)
	}
	return b.String()
}

func (c *CachedStore) store(ctx context.Context, key string, value any) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "history cache write failed", "key", key, "error", err)
	}
}
