package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/statistics"
	dErrors "pdpnode/pkg/domain-errors"
	"pdpnode/pkg/platform/httputil"
	"pdpnode/pkg/requestcontext"
)

// Route paths.
const (
	PathDecision    = "/policy/pdpx/v1/decision"
	PathNative      = "/policy/pdpx/v1/xacml"
	PathStatistics  = "/policy/pdpx/v1/statistics"
	PathHealthcheck = "/policy/pdpx/v1/healthcheck"
)

// Service defines the decision operations exposed over HTTP.
type Service interface {
	Decide(ctx context.Context, req *models.DecisionRequest, params models.DecisionParams) (*models.DecisionResponse, error)
	DecideNative(ctx context.Context, req *native.Request) (*native.Response, error)
}

// StatsReader provides the statistics snapshot.
type StatsReader interface {
	Snapshot() statistics.Snapshot
}

// HealthCheck returns nil when the node is healthy.
type HealthCheck func(ctx context.Context) error

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	stats   StatsReader
	gate    *Gate
	health  HealthCheck
	name    string
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

func WithHealthCheck(check HealthCheck) Option {
	return func(h *Handler) {
		h.health = check
	}
}

// WithName sets the name reported by the health check.
func WithName(name string) Option {
	return func(h *Handler) {
		h.name = name
	}
}

// New constructs a decision handler. Decision routes are served only while
// gate is enabled.
func New(service Service, stats StatsReader, gate *Gate, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		stats:   stats,
		gate:    gate,
		name:    "pdpnode",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get(PathHealthcheck, h.HandleHealthcheck)
	r.Get(PathStatistics, h.HandleStatistics)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Middleware)
		r.Post(PathDecision, h.HandleDecision)
		r.Post(PathNative, h.HandleNative)
	})
}

// HandleDecision handles POST /policy/pdpx/v1/decision requests.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	params, err := parseParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp, err := h.service.Decide(ctx, req, params)
	if err != nil {
		h.logger.WarnContext(ctx, "decision failed",
			"request_id", requestID,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.DebugContext(ctx, "decision served",
		"request_id", requestID,
		"action", req.Action,
		"status", resp.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleNative handles POST /policy/pdpx/v1/xacml requests.
func (h *Handler) HandleNative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[native.Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	resp, err := h.service.DecideNative(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "native decision failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleStatistics handles GET /policy/pdpx/v1/statistics requests.
func (h *Handler) HandleStatistics(w http.ResponseWriter, _ *http.Request) {
	snap := h.stats.Snapshot()
	httputil.WriteJSON(w, http.StatusOK, StatisticsResponse{Code: http.StatusOK, Snapshot: snap})
}

// HandleHealthcheck handles GET /policy/pdpx/v1/healthcheck requests.
func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Name:    h.name,
		URL:     "self",
		Healthy: true,
		Code:    http.StatusOK,
		Message: "alive",
	}
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			resp.Healthy = false
			resp.Code = http.StatusServiceUnavailable
			resp.Message = err.Error()
		}
	}
	httputil.WriteJSON(w, resp.Code, resp)
}

func parseParams(r *http.Request) (models.DecisionParams, error) {
	var params models.DecisionParams
	if v := r.URL.Query().Get("abbrev"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, dErrors.New(dErrors.CodeBadRequest, "abbrev must be a boolean")
		}
		params.Abbreviate = b
	}
	return params, nil
}
