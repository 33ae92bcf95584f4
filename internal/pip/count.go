package pip

import (
	"context"
	"log/slog"
	"strings"

	"pdpnode/internal/native"
	"pdpnode/internal/pip/history"
	"pdpnode/internal/pip/metrics"
	"pdpnode/pkg/requestcontext"
)

// OperationCounter answers operation-count lookups by counting recent
// operations on a target. The window is taken from the issuer.
type OperationCounter struct {
	store   history.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a provider.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewOperationCounter creates the provider. A nil store behaves like an
// unreachable one.
func NewOperationCounter(store history.Store, opts ...Option) *OperationCounter {
	o := buildOptions(opts)
	return &OperationCounter{store: store, logger: o.logger, metrics: o.metrics}
}

func (p *OperationCounter) Name() string {
	return "operation-count"
}

func (p *OperationCounter) Supports(attributeID string) bool {
	return attributeID == AttributeOperationCount
}

func (p *OperationCounter) Required() []native.Designator {
	return []native.Designator{
		GuardDesignator(AttributeActorID, native.DataTypeString),
		GuardDesignator(AttributeOperationID, native.DataTypeString),
		GuardDesignator(AttributeTargetID, native.DataTypeString),
	}
}

func (p *OperationCounter) Resolve(ctx context.Context, req Request) Response {
	if !strings.HasPrefix(req.Issuer, GuardIssuerPrefix) {
		return Empty
	}
	actor, okActor := req.Input(AttributeActorID)
	operation, okOperation := req.Input(AttributeOperationID)
	target, okTarget := req.Input(AttributeTargetID)
	if !okActor || !okOperation || !okTarget {
		p.logger.DebugContext(ctx, "operation count inputs missing", "issuer", req.Issuer)
		return Empty
	}

	window, err := ParseTimeWindow(strings.TrimPrefix(req.Issuer, GuardIssuerPrefix))
	if err != nil {
		p.logger.ErrorContext(ctx, "cannot parse counting window", "issuer", req.Issuer, "error", err)
		p.metrics.IncrementLookup(p.Name(), "invalid_window")
		return countResponse(FailureCount)
	}
	if p.store == nil {
		p.metrics.IncrementLookup(p.Name(), history.QueryFailed.String())
		return countResponse(FailureCount)
	}

	now := requestcontext.Now(ctx)
	res := p.store.CountOperations(ctx, history.CountQuery{
		Actor:     actor,
		Operation: operation,
		Target:    target,
		Since:     window.Start(now),
		Until:     now,
	})
	p.metrics.IncrementLookup(p.Name(), res.Status.String())
	if res.Status != history.Found {
		p.logger.ErrorContext(ctx, "operation count query failed",
			"actor", actor,
			"operation", operation,
			"target", target,
			"window", window.String(),
			"error", res.Err,
		)
		return countResponse(FailureCount)
	}
	return countResponse(res.Count)
}

func countResponse(n int64) Response {
	return Response{Values: []native.AttributeValue{native.IntegerValue(n)}}
}
