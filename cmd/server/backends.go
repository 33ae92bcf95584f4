package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"pdpnode/internal/pip/history"
	"pdpnode/internal/platform/config"
	"pdpnode/internal/platform/redis"
	"pdpnode/pkg/platform/circuit"
)

const defaultHealthTimeout = 2 * time.Second

// backends owns the connections behind the attribute providers.
type backends struct {
	db            *sql.DB
	cache         *redis.Client
	store         history.Store
	healthTimeout time.Duration
}

// openBackends builds the history store chain:
// Postgres -> breaker -> Redis cache. Without a database every query fails
// and the providers answer with their sentinel values.
func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{store: history.Unavailable{}, healthTimeout: defaultHealthTimeout}
	if cfg.Database.QueryTimeout > 0 {
		b.healthTimeout = cfg.Database.QueryTimeout
	}
	if cfg.Database.URL == "" {
		log.WarnContext(ctx, "no history database configured; guard attributes will be indeterminate")
		return b, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		// the breaker handles an unreachable database at query time
		log.WarnContext(ctx, "history database not reachable at startup", "error", err)
	}
	b.db = db

	breaker := circuit.New("history",
		circuit.WithFailureThreshold(cfg.PIP.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.PIP.SuccessThreshold),
	)
	var store history.Store = history.NewBreaker(
		history.NewPostgres(db, cfg.Database.QueryTimeout),
		breaker,
		history.WithCooldown(cfg.PIP.Cooldown),
		history.WithBreakerLogger(log),
	)

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history cache: %w", err)
	}
	if cache != nil && cfg.PIP.CacheTTL > 0 {
		store = history.NewCached(store, cache.Client, cfg.PIP.CacheTTL, history.WithCacheLogger(log))
	}
	b.cache = cache
	b.store = store
	return b, nil
}

func (b *backends) Store() history.Store {
	return b.store
}

// Health reports the first unreachable backend. The whole check is bounded
// by healthTimeout.
func (b *backends) Health(ctx context.Context) error {
	timeout := b.healthTimeout
	if timeout <= 0 {
		timeout = defaultHealthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if b.db != nil {
		if err := b.db.PingContext(ctx); err != nil {
			return fmt.Errorf("history database: %w", err)
		}
	}
	if b.cache != nil {
		if err := b.cache.Health(ctx); err != nil {
			return fmt.Errorf("history cache: %w", err)
		}
	}
	return nil
}

func (b *backends) Close() {
	var errs []error
	if b.cache != nil {
		errs = append(errs, b.cache.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("closing backends", "error", err)
	}
}
