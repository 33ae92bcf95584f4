package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdpnode/internal/native"
	"pdpnode/internal/pip"
)

// evalError carries the status code reported for an indeterminate result.
type evalError struct {
	code string
	msg  string
}

func (e *evalError) Error() string { return e.msg }

func missingAttribute(d native.Designator) error {
	return &evalError{
		code: native.StatusMissingAttribute,
		msg:  fmt.Sprintf("missing attribute %s in category %s", d.AttributeID, d.Category),
	}
}

func processingError(format string, args ...any) error {
	return &evalError{code: native.StatusProcessingError, msg: fmt.Sprintf(format, args...)}
}

func statusFor(err error) *native.Status {
	var ee *evalError
	if errors.As(err, &ee) {
		return &native.Status{Code: ee.code, Message: ee.msg}
	}
	return &native.Status{Code: native.StatusProcessingError, Message: err.Error()}
}

type outcome struct {
	decision    native.Decision
	obligations []native.Obligation
	advice      []native.Advice
	ref         native.PolicyReference
	err         error
}

// evaluation holds the state of evaluating one individual request.
type evaluation struct {
	ctx    context.Context
	req    *native.Request
	engine *Engine
	cache  map[string][]native.AttributeValue
}

func (ev *evaluation) policy(p *native.Policy) outcome {
	out := outcome{ref: native.PolicyReference{ID: p.ID, Version: p.Version}}

	matched, err := ev.target(&p.Target)
	if err != nil {
		out.decision, out.err = native.IndeterminateDP, err
		return out
	}
	if !matched {
		out.decision = native.NotApplicable
		return out
	}

	rules := make([]outcome, 0, len(p.Rules))
	decisions := make([]native.Decision, 0, len(p.Rules))
	for i := range p.Rules {
		r := ev.rule(&p.Rules[i])
		rules = append(rules, r)
		decisions = append(decisions, r.decision)
	}
	alg := p.RuleCombining
	if alg == "" {
		alg = native.CombineDenyOverrides
	}
	decision, decisive := combine(alg, decisions)
	out.decision = decision

	for i, r := range rules {
		if decisive >= 0 && i != decisive {
			continue
		}
		if r.decision == decision {
			out.obligations = append(out.obligations, r.obligations...)
			out.advice = append(out.advice, r.advice...)
		}
		if out.err == nil && r.err != nil && decision.IsIndeterminate() {
			out.err = r.err
		}
	}
	return out
}

func (ev *evaluation) rule(r *native.Rule) outcome {
	indeterminate := native.IndeterminateP
	if r.Effect == native.EffectDeny {
		indeterminate = native.IndeterminateD
	}

	matched, err := ev.target(r.Target)
	if err != nil {
		return outcome{decision: indeterminate, err: err}
	}
	if !matched {
		return outcome{decision: native.NotApplicable}
	}
	if r.Condition != nil {
		ok, err := ev.condition(*r.Condition)
		if err != nil {
			return outcome{decision: indeterminate, err: err}
		}
		if !ok {
			return outcome{decision: native.NotApplicable}
		}
	}
	return outcome{
		decision:    r.Effect.Decision(),
		obligations: r.Obligations,
		advice:      r.Advice,
	}
}

// target returns false as soon as one AnyOf is false; otherwise any error
// makes the target indeterminate.
func (ev *evaluation) target(t *native.Target) (bool, error) {
	if t.Empty() {
		return true, nil
	}
	var firstErr error
	for _, anyOf := range t.AnyOf {
		ok, err := ev.anyOf(anyOf)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !ok {
			return false, nil
		}
	}
	if firstErr != nil {
		return false, firstErr
	}
	return true, nil
}

func (ev *evaluation) anyOf(a native.AnyOf) (bool, error) {
	var firstErr error
	for _, all := range a.AllOf {
		ok, err := ev.allOf(all)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}

func (ev *evaluation) allOf(a native.AllOf) (bool, error) {
	var firstErr error
	for _, m := range a.Matches {
		ok, err := ev.match(m)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !ok {
			return false, nil
		}
	}
	if firstErr != nil {
		return false, firstErr
	}
	return true, nil
}

func (ev *evaluation) match(m native.Match) (bool, error) {
	values, err := ev.lookup(m.Designator)
	if err != nil {
		return false, err
	}
	var firstErr error
	for _, v := range values {
		ok, err := compare(m.Function, m.Value, v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}

func compare(function string, literal, value native.AttributeValue) (bool, error) {
	switch function {
	case "", native.FunctionStringEqual:
		return literal.Value == value.Value, nil
	case native.FunctionStringEqualIgnoreCase:
		return strings.EqualFold(literal.Value, value.Value), nil
	case native.FunctionIntegerEqual:
		a, err := literal.Int()
		if err != nil {
			return false, processingError("%v", err)
		}
		b, err := value.Int()
		if err != nil {
			return false, processingError("%v", err)
		}
		return a == b, nil
	}
	return false, processingError("unsupported match function %q", function)
}

// lookup returns request values for d, falling back to attribute providers.
func (ev *evaluation) lookup(d native.Designator) ([]native.AttributeValue, error) {
	key := d.Category + "|" + d.AttributeID + "|" + d.Issuer
	if vals, ok := ev.cache[key]; ok {
		return vals, nil
	}
	vals := ev.req.Values(d)
	if len(vals) == 0 {
		vals = ev.resolve(d)
	}
	if len(vals) == 0 && d.MustBePresent {
		return nil, missingAttribute(d)
	}
	ev.cache[key] = vals
	return vals, nil
}

// resolve asks each provider supporting the attribute, in registration
// order. Provider inputs come from the request only.
func (ev *evaluation) resolve(d native.Designator) []native.AttributeValue {
	for _, p := range ev.engine.providers {
		if !p.Supports(d.AttributeID) {
			continue
		}
		inputs := make(map[string][]native.AttributeValue)
		for _, rd := range p.Required() {
			inputs[rd.AttributeID] = ev.req.Values(rd)
		}
		resp := p.Resolve(ev.ctx, pip.Request{
			Category:    d.Category,
			AttributeID: d.AttributeID,
			DataType:    d.DataType,
			Issuer:      d.Issuer,
			Inputs:      inputs,
		})
		if !resp.IsEmpty() {
			ev.engine.logger.DebugContext(ev.ctx, "attribute resolved by provider",
				"provider", p.Name(),
				"attribute_id", d.AttributeID,
				"issuer", d.Issuer,
			)
			return resp.Values
		}
	}
	return nil
}
