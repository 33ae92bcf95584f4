package history

import (
	"context"

	"pdpnode/pkg/platform/sentinel"
)

// Unavailable is the store used when no database is configured. Every query
// fails with sentinel.ErrUnavailable.
type Unavailable struct{}

func (Unavailable) CountOperations(context.Context, CountQuery) CountResult {
	return CountFailed(sentinel.ErrUnavailable)
}

func (Unavailable) LatestOutcome(context.Context, string) OutcomeResult {
	return OutcomeFailed(sentinel.ErrUnavailable)
}
