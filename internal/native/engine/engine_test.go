package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pdpnode/internal/native"
	"pdpnode/internal/pip"
)

const (
	attrColor = "urn:test:color"
	attrCount = "urn:test:count"
	attrActor = "urn:test:actor"
)

type fakeProvider struct {
	values   []native.AttributeValue
	calls    []pip.Request
	required []native.Designator
}

func (f *fakeProvider) Name() string                  { return "fake" }
func (f *fakeProvider) Supports(id string) bool       { return id == attrCount }
func (f *fakeProvider) Required() []native.Designator { return f.required }
func (f *fakeProvider) Resolve(_ context.Context, req pip.Request) pip.Response {
	f.calls = append(f.calls, req)
	return pip.Response{Values: f.values}
}

func colorDesignator() native.Designator {
	return native.Designator{Category: native.CategoryResource, AttributeID: attrColor, DataType: native.DataTypeString}
}

func colorPolicy(id, color string, effect native.Effect) *native.Policy {
	return &native.Policy{
		ID:      id,
		Version: "1.0.0",
		Target: native.Target{AnyOf: []native.AnyOf{{AllOf: []native.AllOf{{Matches: []native.Match{{
			Function:   native.FunctionStringEqual,
			Value:      native.StringValue(color),
			Designator: colorDesignator(),
		}}}}}}},
		Rules: []native.Rule{{
			ID:          id + ":rule",
			Effect:      effect,
			Obligations: []native.Obligation{{ID: "obligation:" + id}},
		}},
	}
}

func colorRequest(colors ...string) *native.Request {
	req := &native.Request{}
	for _, c := range colors {
		req.Categories = append(req.Categories, native.Category{
			ID:         native.CategoryResource,
			Attributes: []native.Attribute{{ID: attrColor, Values: []native.AttributeValue{native.StringValue(c)}, IncludeInResult: true}},
		})
	}
	return req
}

type EngineSuite struct {
	suite.Suite
	ctx context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *EngineSuite) newEngine(opts ...Option) *Engine {
	e, err := New(opts...)
	s.Require().NoError(err)
	return e
}

func (s *EngineSuite) TestTargetMatching() {
	e := s.newEngine()
	policies := []*native.Policy{colorPolicy("red", "red", native.EffectPermit)}

	s.Run("matching target permits with obligations", func() {
		resp := e.Decide(s.ctx, colorRequest("red"), policies)
		s.Require().Len(resp.Results, 1)
		s.Equal(native.Permit, resp.Results[0].Decision)
		s.Require().Len(resp.Results[0].Obligations, 1)
		s.Equal("obligation:red", resp.Results[0].Obligations[0].ID)
		s.Equal(native.StatusOK, resp.Results[0].Status.Code)
	})

	s.Run("non-matching target is not applicable", func() {
		resp := e.Decide(s.ctx, colorRequest("blue"), policies)
		s.Equal(native.NotApplicable, resp.Results[0].Decision)
		s.Empty(resp.Results[0].Obligations)
	})

	s.Run("nil request is indeterminate", func() {
		resp := e.Decide(s.ctx, nil, policies)
		s.Equal(native.Indeterminate, resp.Results[0].Decision)
	})
}

func (s *EngineSuite) TestPolicyCombining() {
	policies := []*native.Policy{
		colorPolicy("p1", "red", native.EffectPermit),
		colorPolicy("p2", "red", native.EffectDeny),
	}

	s.Run("deny overrides", func() {
		resp := s.newEngine().Decide(s.ctx, colorRequest("red"), policies)
		s.Equal(native.Deny, resp.Results[0].Decision)
		s.Require().Len(resp.Results[0].Obligations, 1)
		s.Equal("obligation:p2", resp.Results[0].Obligations[0].ID)
	})

	s.Run("permit overrides", func() {
		e := s.newEngine(WithPolicyCombining(native.CombinePermitOverrides))
		resp := e.Decide(s.ctx, colorRequest("red"), policies)
		s.Equal(native.Permit, resp.Results[0].Decision)
	})

	s.Run("first applicable keeps only the first obligations", func() {
		both := []*native.Policy{
			colorPolicy("a", "red", native.EffectPermit),
			colorPolicy("b", "red", native.EffectPermit),
		}
		e := s.newEngine(WithPolicyCombining(native.CombineFirstApplicable))
		resp := e.Decide(s.ctx, colorRequest("red"), both)
		s.Require().Len(resp.Results[0].Obligations, 1)
		s.Equal("obligation:a", resp.Results[0].Obligations[0].ID)
	})

	s.Run("permit unless deny with nothing applicable permits", func() {
		e := s.newEngine(WithPolicyCombining(native.CombinePermitUnlessDeny))
		resp := e.Decide(s.ctx, colorRequest("green"), policies)
		s.Equal(native.Permit, resp.Results[0].Decision)
	})

	s.Run("unknown algorithm is rejected", func() {
		_, err := New(WithPolicyCombining("coin-flip"))
		s.Error(err)
	})
}

func (s *EngineSuite) TestMultiResourceRequest() {
	e := s.newEngine()
	req := colorRequest("red", "blue")
	req.ReturnPolicyIDList = true

	resp := e.Decide(s.ctx, req, []*native.Policy{colorPolicy("red", "red", native.EffectPermit)})

	s.Require().Len(resp.Results, 2)
	s.Equal(native.Permit, resp.Results[0].Decision)
	s.Equal([]native.PolicyReference{{ID: "red", Version: "1.0.0"}}, resp.Results[0].PolicyIdentifiers)
	s.Equal("red", resp.Results[0].Attributes[0].Attributes[0].Values[0].Value)
	s.Equal(native.NotApplicable, resp.Results[1].Decision)
	s.Empty(resp.Results[1].PolicyIdentifiers)
	s.Equal("blue", resp.Results[1].Attributes[0].Attributes[0].Values[0].Value)
}

func (s *EngineSuite) TestProviderResolution() {
	countRef := native.Designator{
		Category:    native.CategoryResource,
		AttributeID: attrCount,
		DataType:    native.DataTypeInteger,
		Issuer:      "urn:test:issuer",
	}
	policy := &native.Policy{
		ID: "limit", Version: "1.0.0",
		Rules: []native.Rule{{
			ID:     "deny-over-limit",
			Effect: native.EffectDeny,
			Condition: &native.Expression{Function: native.FunctionIntegerGreaterEqual, Args: []native.Expression{
				native.Ref(countRef),
				native.Literal(native.IntegerValue(3)),
			}},
		}},
	}
	actor := native.Designator{Category: native.CategorySubject, AttributeID: attrActor}

	s.Run("missing attribute is fetched with pre-fetched inputs", func() {
		provider := &fakeProvider{values: []native.AttributeValue{native.IntegerValue(5)}, required: []native.Designator{actor}}
		e := s.newEngine(WithProviders(provider))

		req := &native.Request{}
		req.Add(native.CategorySubject, attrActor, native.StringValue("SO"))
		resp := e.Decide(s.ctx, req, []*native.Policy{policy})

		s.Equal(native.Deny, resp.Results[0].Decision)
		s.Require().Len(provider.calls, 1)
		s.Equal("urn:test:issuer", provider.calls[0].Issuer)
		actorID, ok := provider.calls[0].Input(attrActor)
		s.True(ok)
		s.Equal("SO", actorID)
	})

	s.Run("request value wins over the provider", func() {
		provider := &fakeProvider{values: []native.AttributeValue{native.IntegerValue(5)}}
		e := s.newEngine(WithProviders(provider))

		req := &native.Request{}
		req.AddAttribute(native.CategoryResource, native.Attribute{
			ID: attrCount, Issuer: "urn:test:issuer", Values: []native.AttributeValue{native.IntegerValue(1)},
		})
		resp := e.Decide(s.ctx, req, []*native.Policy{policy})

		s.Equal(native.NotApplicable, resp.Results[0].Decision)
		s.Empty(provider.calls)
	})

	s.Run("empty provider response makes the rule indeterminate", func() {
		e := s.newEngine(WithProviders(&fakeProvider{}))
		resp := e.Decide(s.ctx, &native.Request{}, []*native.Policy{policy})

		s.Equal(native.IndeterminateD, resp.Results[0].Decision)
		s.Equal(native.StatusMissingAttribute, resp.Results[0].Status.Code)
	})
}

func (s *EngineSuite) TestMustBePresent() {
	d := colorDesignator()
	d.MustBePresent = true
	policy := colorPolicy("red", "red", native.EffectPermit)
	policy.Target.AnyOf[0].AllOf[0].Matches[0].Designator = d

	resp := s.newEngine().Decide(s.ctx, &native.Request{}, []*native.Policy{policy})
	s.Equal(native.IndeterminateDP, resp.Results[0].Decision)
	s.Equal(native.StatusMissingAttribute, resp.Results[0].Status.Code)
}

func TestOverrides(t *testing.T) {
	cases := []struct {
		name string
		in   []native.Decision
		want native.Decision
	}{
		{"empty", nil, native.NotApplicable},
		{"deny wins", []native.Decision{native.Permit, native.Deny}, native.Deny},
		{"permit only", []native.Decision{native.NotApplicable, native.Permit}, native.Permit},
		{"ind d with permit", []native.Decision{native.IndeterminateD, native.Permit}, native.IndeterminateDP},
		{"ind d alone", []native.Decision{native.IndeterminateD}, native.IndeterminateD},
		{"ind p with permit", []native.Decision{native.IndeterminateP, native.Permit}, native.Permit},
		{"ind p alone", []native.Decision{native.IndeterminateP, native.NotApplicable}, native.IndeterminateP},
		{"plain indeterminate", []native.Decision{native.Indeterminate, native.Permit}, native.IndeterminateDP},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, overrides(tc.in, native.Deny))
		})
	}
}
