package translator

import (
	"errors"
	"strings"

	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/pip"
	"pdpnode/internal/tosca"
)

// Guard policy types.
const (
	GuardFrequencyLimiter  = "onap.policies.controlloop.guard.common.FrequencyLimiter"
	GuardMinMax            = "onap.policies.controlloop.guard.common.MinMax"
	GuardBlacklist         = "onap.policies.controlloop.guard.common.Blacklist"
	GuardFirstBlocksSecond = "onap.policies.controlloop.guard.coordination.FirstBlocksSecond"
)

// GuardAny matches every actor or operation.
const GuardAny = "ANY"

// ResourceGuard is the resource key holding the guard request.
const ResourceGuard = "guard"

// Guard translates control loop guard policies into deny rules. A guard
// application combines them with permit-unless-deny, so a request no policy
// denies is permitted.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

func (t *Guard) Translate(doc *tosca.Policy) ([]*native.Policy, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	policy := &native.Policy{
		ID:            doc.Name,
		Version:       doc.PolicyVersion(),
		Description:   doc.Description,
		RuleCombining: native.CombineDenyOverrides,
	}

	var err error
	switch doc.Type {
	case GuardFrequencyLimiter:
		policy.Target = commonTarget(doc.Properties)
		policy.Rules, err = frequencyRules(doc)
	case GuardMinMax:
		policy.Target = commonTarget(doc.Properties)
		if target := str(doc.Properties, "target"); target != "" {
			policy.Target.AnyOf = append(policy.Target.AnyOf, single(guardEquals(pip.AttributeTargetID, target)))
		}
		policy.Rules, err = minMaxRules(doc)
	case GuardBlacklist:
		policy.Target = commonTarget(doc.Properties)
		policy.Rules, err = blacklistRules(doc)
	case GuardFirstBlocksSecond:
		policy.Rules, policy.Target, err = coordinationRules(doc)
	default:
		return nil, invalid(doc, "type", "%q is not a guard policy type", doc.Type)
	}
	if err != nil {
		return nil, err
	}
	return []*native.Policy{policy}, nil
}

func guardRef(attributeID, dataType string) native.Designator {
	return pip.GuardDesignator(attributeID, dataType)
}

func guardEquals(attributeID, value string) native.Match {
	return native.Match{
		Function:   native.FunctionStringEqual,
		Value:      native.StringValue(value),
		Designator: guardRef(attributeID, native.DataTypeString),
	}
}

func single(m native.Match) native.AnyOf {
	return native.AnyOf{AllOf: []native.AllOf{{Matches: []native.Match{m}}}}
}

// commonTarget scopes a guard policy to its actor, operation and closed loop.
func commonTarget(props map[string]any) native.Target {
	var t native.Target
	if actor := str(props, "actor"); actor != "" && !strings.EqualFold(actor, GuardAny) {
		t.AnyOf = append(t.AnyOf, single(guardEquals(pip.AttributeActorID, actor)))
	}
	if op := str(props, "operation"); op != "" && !strings.EqualFold(op, GuardAny) {
		t.AnyOf = append(t.AnyOf, single(guardEquals(pip.AttributeOperationID, op)))
	}
	if id := str(props, "id"); id != "" {
		t.AnyOf = append(t.AnyOf, single(guardEquals(pip.AttributeClosedLoopName, id)))
	}
	return t
}

func frequencyRules(doc *tosca.Policy) ([]native.Rule, error) {
	window, err := integer(doc.Properties["timeWindow"])
	if err != nil || window < 0 {
		return nil, invalid(doc, "properties.timeWindow", "must be a non-negative integer")
	}
	units := str(doc.Properties, "timeUnits")
	if units == "" {
		return nil, missing(doc, "properties.timeUnits")
	}
	issuer := pip.CountIssuer(int(window), units)
	if _, err := pip.ParseTimeWindow(issuer); err != nil {
		if errors.Is(err, pip.ErrUnsupportedUnit) {
			return nil, invalid(doc, "properties.timeUnits", "%v", err)
		}
		return nil, invalid(doc, "properties.timeWindow", "%v", err)
	}
	limit, err := integer(doc.Properties["limit"])
	if err != nil {
		return nil, invalid(doc, "properties.limit", "must be an integer")
	}

	count := guardRef(pip.AttributeOperationCount, native.DataTypeInteger)
	count.Issuer = issuer
	return []native.Rule{{
		ID:          doc.Name + ":frequency",
		Description: "deny when the operation count in the window reaches the limit",
		Effect:      native.EffectDeny,
		Condition: &native.Expression{Function: native.FunctionIntegerGreaterEqual, Args: []native.Expression{
			native.Ref(count),
			native.Literal(native.IntegerValue(limit)),
		}},
	}}, nil
}

func minMaxRules(doc *tosca.Policy) ([]native.Rule, error) {
	vfCount := native.Ref(guardRef(pip.AttributeVfCount, native.DataTypeInteger))
	var rules []native.Rule
	if v, ok := doc.Properties["min"]; ok {
		minimum, err := integer(v)
		if err != nil {
			return nil, invalid(doc, "properties.min", "must be an integer")
		}
		rules = append(rules, native.Rule{
			ID:     doc.Name + ":min",
			Effect: native.EffectDeny,
			Condition: &native.Expression{Function: native.FunctionIntegerLessThan, Args: []native.Expression{
				vfCount, native.Literal(native.IntegerValue(minimum)),
			}},
		})
	}
	if v, ok := doc.Properties["max"]; ok {
		maximum, err := integer(v)
		if err != nil {
			return nil, invalid(doc, "properties.max", "must be an integer")
		}
		rules = append(rules, native.Rule{
			ID:     doc.Name + ":max",
			Effect: native.EffectDeny,
			Condition: &native.Expression{Function: native.FunctionIntegerGreaterThan, Args: []native.Expression{
				vfCount, native.Literal(native.IntegerValue(maximum)),
			}},
		})
	}
	if len(rules) == 0 {
		return nil, missing(doc, "properties.min")
	}
	return rules, nil
}

func blacklistRules(doc *tosca.Policy) ([]native.Rule, error) {
	entries := stringValues(doc.Properties["blacklist"])
	if len(entries) == 0 {
		return nil, missing(doc, "properties.blacklist")
	}
	target := native.Ref(guardRef(pip.AttributeTargetID, native.DataTypeString))
	args := make([]native.Expression, 0, len(entries))
	for _, e := range entries {
		args = append(args, native.Apply(native.FunctionStringIsIn, native.Literal(e), target))
	}
	return []native.Rule{{
		ID:        doc.Name + ":blacklist",
		Effect:    native.EffectDeny,
		Condition: &native.Expression{Function: native.FunctionOr, Args: args},
	}}, nil
}

// coordinationRules blocks the second closed loop while the first has an
// operation in progress.
func coordinationRules(doc *tosca.Policy) ([]native.Rule, native.Target, error) {
	loops := stringValues(doc.Properties["controlLoop"])
	if len(loops) != 2 {
		return nil, native.Target{}, invalid(doc, "properties.controlLoop", "must list exactly two closed loops")
	}
	first, second := loops[0].Value, loops[1].Value

	outcome := guardRef(pip.AttributeOperationOutcome, native.DataTypeString)
	outcome.Issuer = pip.OutcomeIssuer(first)
	target := native.Target{AnyOf: []native.AnyOf{single(guardEquals(pip.AttributeClosedLoopName, second))}}
	rules := []native.Rule{{
		ID:          doc.Name + ":first-blocks-second",
		Description: "deny " + second + " while " + first + " is in progress",
		Effect:      native.EffectDeny,
		Condition: &native.Expression{Function: native.FunctionStringIsIn, Args: []native.Expression{
			native.Literal(native.StringValue(pip.OutcomeInProgress)),
			native.Ref(outcome),
		}},
	}}
	return rules, target, nil
}

// guardFields maps guard request keys to attribute ids.
var guardFields = []struct{ key, attributeID string }{
	{"actor", pip.AttributeActorID},
	{"operation", pip.AttributeOperationID},
	{"target", pip.AttributeTargetID},
	{"requestId", pip.AttributeRequestID},
	{"clname", pip.AttributeClosedLoopName},
}

// ConvertRequest reads the guard context from resource.guard, or from the
// resource itself when there is no guard entry.
func (t *Guard) ConvertRequest(req *models.DecisionRequest) (*native.Request, error) {
	if req == nil {
		return nil, &RequestError{Reason: "request is required"}
	}
	fields := req.Resource
	if nested, ok := req.Resource[ResourceGuard].(map[string]any); ok {
		fields = nested
	}

	out := &native.Request{}
	addCallerAttributes(out, req.OnapName, req.OnapComponent, req.OnapInstance, req.RequestID, req.Action)
	for _, f := range guardFields {
		if s, ok := scalar(fields[f.key]); ok && s != "" {
			out.Add(native.CategoryResource, f.attributeID, native.StringValue(s))
		}
	}
	if v, ok := fields["vfCount"]; ok {
		n, err := integer(v)
		if err != nil {
			return nil, &RequestError{Reason: "vfCount must be an integer"}
		}
		out.Add(native.CategoryResource, pip.AttributeVfCount, native.IntegerValue(n))
	}
	return out, nil
}

// ConvertResponse reports Permit or Deny. Anything else is returned with the
// engine status message.
func (t *Guard) ConvertResponse(resp *native.Response, _ models.DecisionParams) *models.DecisionResponse {
	out := &models.DecisionResponse{}
	if resp == nil || len(resp.Results) == 0 {
		out.Status = native.Indeterminate.String()
		return out
	}
	r := resp.Results[0]
	out.Status = r.Decision.String()
	if r.Decision.IsIndeterminate() {
		out.Status = native.Indeterminate.String()
		if r.Status != nil {
			out.Message = r.Status.Message
		}
	}
	return out
}
