// Package pip holds attribute providers that compute facts missing from a
// decision request. Providers are invoked by the decision engine while it
// evaluates a policy and only answer lookups carrying their reserved issuer.
package pip

import (
	"context"

	"pdpnode/internal/native"
)

// Request is one attribute lookup. Inputs holds the values of every attribute
// the provider declared as Required, pre-fetched from the decision request.
type Request struct {
	Category    string
	AttributeID string
	DataType    string
	Issuer      string
	Inputs      map[string][]native.AttributeValue
}

// Input returns the first value of a pre-fetched input attribute.
func (r Request) Input(attributeID string) (string, bool) {
	vals := r.Inputs[attributeID]
	if len(vals) == 0 || vals[0].Value == "" {
		return "", false
	}
	return vals[0].Value, true
}

// Response carries the resolved values; no values means "no attribute".
type Response struct {
	Values []native.AttributeValue
}

// IsEmpty reports whether the provider had nothing to contribute.
func (r Response) IsEmpty() bool {
	return len(r.Values) == 0
}

// Empty is the response for lookups a provider does not answer.
var Empty = Response{}

// Provider resolves attributes on demand.
type Provider interface {
	Name() string
	// Supports reports whether the provider can supply the attribute id.
	Supports(attributeID string) bool
	// Required lists the request attributes the engine must pre-fetch.
	Required() []native.Designator
	Resolve(ctx context.Context, req Request) Response
}
