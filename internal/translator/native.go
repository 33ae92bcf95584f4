package translator

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"

	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/tosca"
)

// PolicyTypeNative is the policy type wrapping a native policy.
const PolicyTypeNative = "onap.policies.native.Xacml"

// Native loads pre-built native policies. The policy property holds the
// policy as an object, as JSON text or as base64 encoded JSON.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (t *Native) Translate(doc *tosca.Policy) ([]*native.Policy, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	raw, ok := doc.Properties["policy"]
	if !ok || raw == nil {
		return nil, missing(doc, "properties.policy")
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = decodeText(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, invalid(doc, "properties.policy", "cannot be serialized: %v", err)
		}
		data = b
	}

	var policy native.Policy
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&policy); err != nil {
		return nil, invalid(doc, "properties.policy", "is not a native policy: %v", err)
	}
	if policy.ID == "" {
		policy.ID = doc.Name
	}
	if policy.Version == "" {
		policy.Version = doc.PolicyVersion()
	}
	return []*native.Policy{&policy}, nil
}

func decodeText(s string) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		return []byte(s)
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}

// ConvertRequest always fails: native policies are only evaluated with
// native requests.
func (t *Native) ConvertRequest(*models.DecisionRequest) (*native.Request, error) {
	return nil, &RequestError{Reason: "the native application only accepts native requests"}
}

func (t *Native) ConvertResponse(resp *native.Response, _ models.DecisionParams) *models.DecisionResponse {
	out := &models.DecisionResponse{Status: native.Indeterminate.String()}
	if resp != nil && len(resp.Results) > 0 {
		out.Status = resp.Results[0].Decision.String()
	}
	return out
}
