package translator

import (
	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/tosca"
)

// CombinedResults translates a document into a single policy selectable by
// policy id, by policy type, or by policy type and version. The policy has
// one unconditional permit rule returning the properties as an obligation.
type CombinedResults struct{}

func NewCombinedResults() *CombinedResults {
	return &CombinedResults{}
}

func (t *CombinedResults) Translate(doc *tosca.Policy) ([]*native.Policy, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	obligation, err := policyObligation(doc)
	if err != nil {
		return nil, err
	}

	policy := &native.Policy{
		ID:            doc.Name,
		Version:       doc.PolicyVersion(),
		Description:   doc.Description,
		RuleCombining: native.CombineFirstApplicable,
		Target:        identityTarget(doc),
		Rules: []native.Rule{{
			ID:          doc.Name + ":permit",
			Effect:      native.EffectPermit,
			Obligations: []native.Obligation{obligation},
		}},
	}
	return []*native.Policy{policy}, nil
}

// identityTarget is the disjunction of the three selection clauses.
func identityTarget(doc *tosca.Policy) native.Target {
	return native.Target{AnyOf: []native.AnyOf{{AllOf: []native.AllOf{
		{Matches: []native.Match{equals(AttributePolicyID, doc.PolicyID())}},
		{Matches: []native.Match{equals(AttributePolicyType, doc.Type)}},
		{Matches: []native.Match{
			equals(AttributePolicyType, doc.Type),
			equals(AttributePolicyTypeVersion, doc.TypeVersion),
		}},
	}}}}
}

// ConvertRequest maps resource policy-id, policy-type and
// policy-type-version entries onto resource attributes. Each may be a single
// value or a list.
func (t *CombinedResults) ConvertRequest(req *models.DecisionRequest) (*native.Request, error) {
	if req == nil {
		return nil, &RequestError{Reason: "request is required"}
	}
	out := &native.Request{ReturnPolicyIDList: true}
	addCallerAttributes(out, req.OnapName, req.OnapComponent, req.OnapInstance, req.RequestID, req.Action)
	for _, m := range []struct{ key, attributeID string }{
		{ResourcePolicyID, AttributePolicyID},
		{ResourcePolicyType, AttributePolicyType},
		{ResourcePolicyTypeVersion, AttributePolicyTypeVersion},
	} {
		if vals := stringValues(req.Resource[m.key]); len(vals) > 0 {
			out.Add(native.CategoryResource, m.attributeID, vals...)
		}
	}
	return out, nil
}

// ConvertResponse collects the policies carried by permit obligations. The
// status is the decision of the first result.
func (t *CombinedResults) ConvertResponse(resp *native.Response, params models.DecisionParams) *models.DecisionResponse {
	return policiesResponse(resp, params)
}

func policiesResponse(resp *native.Response, params models.DecisionParams) *models.DecisionResponse {
	out := &models.DecisionResponse{Policies: map[string]any{}}
	if resp == nil {
		return out
	}
	for i, r := range resp.Results {
		if i == 0 {
			out.Status = r.Decision.String()
		}
		if r.Decision.IsIndeterminate() && r.Status != nil && out.Message == "" {
			out.Message = r.Status.Message
		}
		if r.Decision != native.Permit {
			continue
		}
		for _, o := range r.Obligations {
			if id, entry, ok := policyEntry(o, params.Abbreviate); ok {
				out.Policies[id] = entry
			}
		}
	}
	return out
}
