// Package history answers the two questions attribute providers ask of the
// operations history: how many operations ran in a window, and what the
// latest outcome of a closed loop was.
package history

import (
	"context"
	"time"
)

// Status distinguishes a result from an absence and from a failure.
type Status int

const (
	Found Status = iota
	NotFound
	QueryFailed
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "query_failed"
	}
}

// GuardFailureOutcome marks operations the guard itself rejected; they are
// never counted.
const GuardFailureOutcome = "Failure_Guard"

// CountQuery selects operations by actor, operation and target whose end
// time falls in [Since, Until].
type CountQuery struct {
	Actor     string
	Operation string
	Target    string
	Since     time.Time
	Until     time.Time
}

// CountResult is the outcome of CountOperations.
type CountResult struct {
	Status Status
	Count  int64
	Err    error
}

func CountFound(n int64) CountResult { return CountResult{Status: Found, Count: n} }

func CountFailed(err error) CountResult { return CountResult{Status: QueryFailed, Err: err} }

// OutcomeResult is the outcome of LatestOutcome.
type OutcomeResult struct {
	Status  Status
	Outcome string
	Err     error
}

func OutcomeFound(outcome string) OutcomeResult {
	return OutcomeResult{Status: Found, Outcome: outcome}
}

func OutcomeNotFound() OutcomeResult { return OutcomeResult{Status: NotFound} }

func OutcomeFailed(err error) OutcomeResult { return OutcomeResult{Status: QueryFailed, Err: err} }

// Store is the read-only query surface over the operations history.
type Store interface {
	CountOperations(ctx context.Context, q CountQuery) CountResult
	LatestOutcome(ctx context.Context, closedLoopName string) OutcomeResult
}
