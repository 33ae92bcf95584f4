package translator

import (
	"encoding/json"

	"pdpnode/internal/native"
	"pdpnode/internal/tosca"
)

// Resource attribute ids used to select policies.
const (
	AttributePolicyID          = "urn:org:onap:policy-id"
	AttributePolicyType        = "urn:org:onap:policy-type"
	AttributePolicyTypeVersion = "urn:org:onap:policy-type-version"
	AttributeMatchablePrefix   = "urn:org:onap:matchable:"
	AttributeOnapName          = "urn:org:onap:onap-name"
	AttributeOnapComponent     = "urn:org:onap:onap-component"
	AttributeOnapInstance      = "urn:org:onap:onap-instance"
	AttributeRequestID         = "urn:org:onap:request-id"
)

// Request resource keys.
const (
	ResourcePolicyID          = "policy-id"
	ResourcePolicyType        = "policy-type"
	ResourcePolicyTypeVersion = "policy-type-version"
)

// Obligation carrying a policy back to the caller.
const (
	ObligationPolicy        = "urn:org:onap:rule:body"
	AssignPolicyID          = "urn:org:onap:policy-id"
	AssignPolicyName        = "urn:org:onap:policy-name"
	AssignPolicyVersion     = "urn:org:onap:policy-version"
	AssignPolicyMetaVersion = "urn:org:onap:policy-metadata-version"
	AssignPolicyType        = "urn:org:onap:policy-type"
	AssignPolicyTypeVersion = "urn:org:onap:policy-type-version"
	AssignPolicyContent     = "urn:org:onap:policy-content"
)

func resourceRef(attributeID string) native.Designator {
	return native.Designator{
		Category:    native.CategoryResource,
		AttributeID: attributeID,
		DataType:    native.DataTypeString,
	}
}

func equals(attributeID, value string) native.Match {
	return native.Match{
		Function:   native.FunctionStringEqual,
		Value:      native.StringValue(value),
		Designator: resourceRef(attributeID),
	}
}

// policyObligation serializes the properties block verbatim into an
// obligation, together with the identity needed to rebuild the policy entry.
func policyObligation(doc *tosca.Policy) (native.Obligation, error) {
	content, err := json.Marshal(doc.Properties)
	if err != nil {
		return native.Obligation{}, invalid(doc, "properties", "cannot be serialized: %v", err)
	}
	assign := func(id, value string) native.AttributeAssignment {
		return native.AttributeAssignment{ID: id, Value: native.StringValue(value)}
	}
	return native.Obligation{
		ID: ObligationPolicy,
		Attributes: []native.AttributeAssignment{
			assign(AssignPolicyID, doc.PolicyID()),
			assign(AssignPolicyName, doc.Name),
			assign(AssignPolicyVersion, doc.Version),
			assign(AssignPolicyMetaVersion, doc.PolicyVersion()),
			assign(AssignPolicyType, doc.Type),
			assign(AssignPolicyTypeVersion, doc.TypeVersion),
			assign(AssignPolicyContent, string(content)),
		},
	}, nil
}

// policyEntry rebuilds the response entry for a policy obligation.
func policyEntry(o native.Obligation, abbreviate bool) (string, map[string]any, bool) {
	if o.ID != ObligationPolicy {
		return "", nil, false
	}
	id, ok := o.Get(AssignPolicyID)
	if !ok || id == "" {
		return "", nil, false
	}
	name, _ := o.Get(AssignPolicyName)
	version, _ := o.Get(AssignPolicyVersion)
	metaVersion, _ := o.Get(AssignPolicyMetaVersion)
	policyType, _ := o.Get(AssignPolicyType)
	typeVersion, _ := o.Get(AssignPolicyTypeVersion)

	entry := map[string]any{
		"type":         policyType,
		"type_version": typeVersion,
		"name":         name,
		"version":      version,
		"metadata": map[string]any{
			tosca.MetadataPolicyID:      id,
			tosca.MetadataPolicyVersion: metaVersion,
		},
	}
	if !abbreviate {
		var props map[string]any
		if content, ok := o.Get(AssignPolicyContent); ok {
			_ = json.Unmarshal([]byte(content), &props)
		}
		entry["properties"] = props
	}
	return id, entry, true
}

// addCallerAttributes records who is asking.
func addCallerAttributes(out *native.Request, onapName, onapComponent, onapInstance, requestID, action string) {
	add := func(category, id, value string) {
		if value != "" {
			out.Add(category, id, native.StringValue(value))
		}
	}
	add(native.CategorySubject, AttributeOnapName, onapName)
	add(native.CategorySubject, AttributeOnapComponent, onapComponent)
	add(native.CategorySubject, AttributeOnapInstance, onapInstance)
	add(native.CategoryEnvironment, AttributeRequestID, requestID)
	add(native.CategoryAction, native.AttributeActionID, action)
}

// stringValues flattens a scalar or list into attribute values.
func stringValues(v any) []native.AttributeValue {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]native.AttributeValue, 0, len(t))
		for _, item := range t {
			if s, ok := scalar(item); ok {
				out = append(out, native.StringValue(s))
			}
		}
		return out
	case []string:
		out := make([]native.AttributeValue, 0, len(t))
		for _, s := range t {
			out = append(out, native.StringValue(s))
		}
		return out
	}
	if s, ok := scalar(v); ok {
		return []native.AttributeValue{native.StringValue(s)}
	}
	return nil
}
