package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pdpnode/pkg/platform/sentinel"
)

// PostgresStore reads the operations_history table. Every query runs under
// the configured timeout; expiry is reported as a query failure.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres constructs a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) CountOperations(ctx context.Context, q CountQuery) CountResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM operations_history
		WHERE outcome <> $1
			AND actor = $2
			AND operation = $3
			AND target = $4
			AND end_time BETWEEN $5 AND $6
	`
	var n int64
	err := s.db.QueryRowContext(ctx, query, GuardFailureOutcome, q.Actor, q.Operation, q.Target, q.Since, q.Until).Scan(&n)
	if err != nil {
		return CountFailed(classify(ctx, fmt.Errorf("count operations: %w", err)))
	}
	return CountFound(n)
}

func (s *PostgresStore) LatestOutcome(ctx context.Context, closedLoopName string) OutcomeResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT outcome
		FROM operations_history
		WHERE closed_loop_name = $1
		ORDER BY start_time DESC
		LIMIT 1
	`
	var outcome sql.NullString
	err := s.db.QueryRowContext(ctx, query, closedLoopName).Scan(&outcome)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OutcomeNotFound()
		}
		return OutcomeFailed(classify(ctx, fmt.Errorf("latest outcome: %w", err)))
	}
	if !outcome.Valid || outcome.String == "" {
		return OutcomeNotFound()
	}
	return OutcomeFound(outcome.String)
}

// classify marks timeouts as unavailability so breakers and logs can tell
// them apart from malformed queries.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}
