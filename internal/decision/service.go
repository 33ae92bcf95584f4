// Package decision routes decision requests to the application serving them
// and accounts for every outcome.
package decision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdpnode/internal/application"
	"pdpnode/internal/decision/metrics"
	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/translator"
	dErrors "pdpnode/pkg/domain-errors"
	"pdpnode/pkg/requestcontext"
)

// NativeAction is the action served by the pass-through application.
const NativeAction = "native"

// Registry resolves an action to its application.
type Registry interface {
	Find(action string) (*application.Application, error)
}

// Stats receives decision outcomes.
type Stats interface {
	RecordResponse(application string, resp *native.Response)
	RecordError()
}

// Service is the decision router.
type Service struct {
	registry Registry
	stats    Stats
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(registry Registry, stats Stats, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		stats:    stats,
		logger:   slog.Default(),
		tracer:   otel.Tracer("pdpnode/internal/decision"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide routes a generic decision request. Routing failures are client
// errors and are not counted; conversion failures and missing engine
// responses count as errors.
func (s *Service) Decide(ctx context.Context, req *models.DecisionRequest, params models.DecisionParams) (*models.DecisionResponse, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	ctx, span := s.tracer.Start(ctx, "decision.Decide", trace.WithAttributes(
		attribute.String("pdp.action", req.Action),
		attribute.Bool("pdp.abbreviate", params.Abbreviate),
	))
	defer span.End()
	start := time.Now()

	app, err := s.route(ctx, span, req.Action)
	if err != nil {
		return nil, err
	}

	resp, nresp, err := app.Evaluate(ctx, req, params)
	if err != nil {
		s.stats.RecordError()
		s.metrics.IncrementError(app.Name(), "convert")
		span.SetStatus(codes.Error, err.Error())
		var rerr *translator.RequestError
		if errors.As(err, &rerr) {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, rerr.Reason)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decision request could not be converted")
	}
	if nresp == nil {
		return nil, s.noResponse(ctx, span, app.Name())
	}
	s.account(ctx, span, app.Name(), nresp, start)
	return resp, nil
}

// DecideNative routes a native request to the pass-through application.
func (s *Service) DecideNative(ctx context.Context, req *native.Request) (*native.Response, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	ctx, span := s.tracer.Start(ctx, "decision.DecideNative")
	defer span.End()
	start := time.Now()

	app, err := s.route(ctx, span, NativeAction)
	if err != nil {
		return nil, err
	}
	resp := app.EvaluateNative(ctx, req)
	if resp == nil {
		return nil, s.noResponse(ctx, span, app.Name())
	}
	s.account(ctx, span, app.Name(), resp, start)
	return resp, nil
}

func (s *Service) route(ctx context.Context, span trace.Span, action string) (*application.Application, error) {
	app, err := s.registry.Find(action)
	if err != nil {
		s.metrics.IncrementError("", "routing")
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "no application for decision request",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
		)
		var rerr *application.RoutingError
		if errors.As(err, &rerr) {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, rerr.Error())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "routing failed")
	}
	span.SetAttributes(attribute.String("pdp.application", app.Name()))
	return app, nil
}

func (s *Service) noResponse(ctx context.Context, span trace.Span, app string) error {
	s.stats.RecordError()
	s.metrics.IncrementError(app, "no_response")
	span.SetStatus(codes.Error, "no response")
	s.logger.ErrorContext(ctx, "decision engine returned no response",
		"request_id", requestcontext.RequestID(ctx),
		"application", app,
	)
	return dErrors.New(dErrors.CodeInternal, "decision engine returned no response")
}

func (s *Service) account(ctx context.Context, span trace.Span, app string, resp *native.Response, start time.Time) {
	s.stats.RecordResponse(app, resp)
	for _, r := range resp.Results {
		s.metrics.IncrementOutcome(app, r.Decision.String())
	}
	s.metrics.ObserveDecisionLatency(app, time.Since(start))
	span.SetAttributes(attribute.Int("pdp.results", len(resp.Results)))

	s.logger.InfoContext(ctx, "decision evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"application", app,
		"results", len(resp.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
