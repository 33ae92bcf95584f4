package translator

import (
	"sort"

	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/tosca"
)

// Matchable translates a document into a policy whose target requires every
// matchable property, as declared by the policy type definition, to equal
// one of its values in the request. Other properties are only returned.
type Matchable struct {
	catalog *tosca.Catalog
}

func NewMatchable(catalog *tosca.Catalog) *Matchable {
	if catalog == nil {
		catalog = tosca.NewCatalog()
	}
	return &Matchable{catalog: catalog}
}

func (t *Matchable) Translate(doc *tosca.Policy) ([]*native.Policy, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	obligation, err := policyObligation(doc)
	if err != nil {
		return nil, err
	}

	var target native.Target
	for _, name := range t.catalog.MatchableProperties(doc.TypeIdentifier()) {
		vals := stringValues(doc.Properties[name])
		if len(vals) == 0 {
			continue
		}
		anyOf := native.AnyOf{}
		for _, v := range vals {
			anyOf.AllOf = append(anyOf.AllOf, native.AllOf{Matches: []native.Match{
				equals(AttributeMatchablePrefix+name, v.Value),
			}})
		}
		target.AnyOf = append(target.AnyOf, anyOf)
	}

	policy := &native.Policy{
		ID:            doc.Name,
		Version:       doc.PolicyVersion(),
		Description:   doc.Description,
		RuleCombining: native.CombineFirstApplicable,
		Target:        target,
		Rules: []native.Rule{{
			ID:          doc.Name + ":permit",
			Effect:      native.EffectPermit,
			Obligations: []native.Obligation{obligation},
		}},
	}
	return []*native.Policy{policy}, nil
}

// ConvertRequest maps every scalar or list resource entry onto a matchable
// attribute of the same name.
func (t *Matchable) ConvertRequest(req *models.DecisionRequest) (*native.Request, error) {
	if req == nil {
		return nil, &RequestError{Reason: "request is required"}
	}
	out := &native.Request{ReturnPolicyIDList: true}
	addCallerAttributes(out, req.OnapName, req.OnapComponent, req.OnapInstance, req.RequestID, req.Action)

	keys := make([]string, 0, len(req.Resource))
	for k := range req.Resource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if vals := stringValues(req.Resource[k]); len(vals) > 0 {
			out.Add(native.CategoryResource, AttributeMatchablePrefix+k, vals...)
		}
	}
	return out, nil
}

func (t *Matchable) ConvertResponse(resp *native.Response, params models.DecisionParams) *models.DecisionResponse {
	return policiesResponse(resp, params)
}
