package pip

import (
	"context"
	"log/slog"
	"strings"

	"pdpnode/internal/native"
	"pdpnode/internal/pip/history"
	"pdpnode/internal/pip/metrics"
)

const closedLoopMarker = "clname:"

// OutcomeResolver answers operation-outcome lookups with the normalized
// outcome of the latest operation of a closed loop named in the issuer.
type OutcomeResolver struct {
	store   history.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewOutcomeResolver creates the provider. A nil store yields no outcomes.
func NewOutcomeResolver(store history.Store, opts ...Option) *OutcomeResolver {
	o := buildOptions(opts)
	return &OutcomeResolver{store: store, logger: o.logger, metrics: o.metrics}
}

func (p *OutcomeResolver) Name() string {
	return "operation-outcome"
}

func (p *OutcomeResolver) Supports(attributeID string) bool {
	return attributeID == AttributeOperationOutcome
}

func (p *OutcomeResolver) Required() []native.Designator {
	return []native.Designator{GuardDesignator(AttributeTargetID, native.DataTypeString)}
}

func (p *OutcomeResolver) Resolve(ctx context.Context, req Request) Response {
	if !strings.HasPrefix(req.Issuer, GuardIssuerPrefix) {
		return Empty
	}
	idx := strings.LastIndex(req.Issuer, closedLoopMarker)
	if idx < 0 {
		return Empty
	}
	name := req.Issuer[idx+len(closedLoopMarker):]
	if name == "" || p.store == nil {
		return Empty
	}

	target, _ := req.Input(AttributeTargetID)
	res := p.store.LatestOutcome(ctx, name)
	p.metrics.IncrementLookup(p.Name(), res.Status.String())
	switch res.Status {
	case history.Found:
		outcome := NormalizeOutcome(res.Outcome)
		if outcome == "" {
			return Empty
		}
		return Response{Values: []native.AttributeValue{native.StringValue(outcome)}}
	case history.NotFound:
		return Empty
	default:
		p.logger.ErrorContext(ctx, "operation outcome query failed",
			"closed_loop", name,
			"target", target,
			"error", res.Err,
		)
		return Empty
	}
}

// NormalizeOutcome maps "Started" to In_Progress and any other non-empty
// outcome to Complete. An empty outcome stays empty.
func NormalizeOutcome(outcome string) string {
	switch outcome {
	case "":
		return ""
	case "Started":
		return OutcomeInProgress
	}
	return OutcomeComplete
}
