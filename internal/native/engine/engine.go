// Package engine evaluates native policies against native requests.
//
// The engine is stateless apart from its configuration and is safe for
// concurrent use. Attributes missing from a request are looked up through
// the configured pip providers.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"pdpnode/internal/native"
	"pdpnode/internal/pip"
)

// Engine evaluates requests against a policy set.
type Engine struct {
	providers []pip.Provider
	combining string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithProviders registers attribute providers, consulted in order.
func WithProviders(providers ...pip.Provider) Option {
	return func(e *Engine) {
		e.providers = append(e.providers, providers...)
	}
}

// WithPolicyCombining sets the algorithm combining per-policy decisions.
func WithPolicyCombining(alg string) Option {
	return func(e *Engine) {
		e.combining = alg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine. The default policy combining algorithm is
// deny-overrides.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		combining: native.CombineDenyOverrides,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !knownCombining(e.combining) {
		return nil, fmt.Errorf("unknown combining algorithm %q", e.combining)
	}
	return e, nil
}

// Decide evaluates req against policies and returns one result per
// individual request. A request naming several resource categories is split
// into one individual request per resource.
func (e *Engine) Decide(ctx context.Context, req *native.Request, policies []*native.Policy) *native.Response {
	if req == nil {
		return &native.Response{Results: []native.Result{{
			Decision: native.Indeterminate,
			Status:   &native.Status{Code: native.StatusSyntaxError, Message: "request is required"},
		}}}
	}
	individual := split(req)
	resp := &native.Response{Results: make([]native.Result, 0, len(individual))}
	for _, ir := range individual {
		resp.Results = append(resp.Results, e.evaluate(ctx, ir, policies))
	}
	return resp
}

func (e *Engine) evaluate(ctx context.Context, req *native.Request, policies []*native.Policy) native.Result {
	ev := &evaluation{
		ctx:    ctx,
		req:    req,
		engine: e,
		cache:  make(map[string][]native.AttributeValue),
	}

	outcomes := make([]outcome, 0, len(policies))
	decisions := make([]native.Decision, 0, len(policies))
	for _, p := range policies {
		o := ev.policy(p)
		outcomes = append(outcomes, o)
		decisions = append(decisions, o.decision)
	}
	decision, decisive := combine(e.combining, decisions)

	result := native.Result{
		Decision:   decision,
		Status:     &native.Status{Code: native.StatusOK},
		Attributes: includedAttributes(req),
	}
	for i, o := range outcomes {
		if decisive >= 0 && i != decisive {
			continue
		}
		if o.decision == decision && (decision == native.Permit || decision == native.Deny) {
			result.Obligations = append(result.Obligations, o.obligations...)
			result.Advice = append(result.Advice, o.advice...)
		}
	}
	if decision.IsIndeterminate() {
		result.Status = indeterminateStatus(outcomes)
	}
	if req.ReturnPolicyIDList {
		for _, o := range outcomes {
			if o.decision != native.NotApplicable {
				result.PolicyIdentifiers = append(result.PolicyIdentifiers, o.ref)
			}
		}
	}
	return result
}

func indeterminateStatus(outcomes []outcome) *native.Status {
	for _, o := range outcomes {
		if o.err != nil {
			return statusFor(o.err)
		}
	}
	return &native.Status{Code: native.StatusProcessingError}
}

func includedAttributes(req *native.Request) []native.Category {
	var out []native.Category
	for _, c := range req.Categories {
		var attrs []native.Attribute
		for _, a := range c.Attributes {
			if a.IncludeInResult {
				attrs = append(attrs, a)
			}
		}
		if len(attrs) > 0 {
			out = append(out, native.Category{ID: c.ID, Attributes: attrs})
		}
	}
	return out
}

// split turns a request with N resource categories into N requests sharing
// every other category.
func split(req *native.Request) []*native.Request {
	var resources, shared []native.Category
	for _, c := range req.Categories {
		if c.ID == native.CategoryResource {
			resources = append(resources, c)
		} else {
			shared = append(shared, c)
		}
	}
	if len(resources) <= 1 {
		return []*native.Request{req}
	}
	out := make([]*native.Request, 0, len(resources))
	for _, r := range resources {
		cats := make([]native.Category, 0, len(shared)+1)
		cats = append(cats, shared...)
		cats = append(cats, r)
		out = append(out, &native.Request{Categories: cats, ReturnPolicyIDList: req.ReturnPolicyIDList})
	}
	return out
}
