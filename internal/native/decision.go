// Package native defines the matchable policy representation consumed by the
// decision engine, together with its request and response shapes.
package native

import (
	"encoding/json"
	"fmt"
)

// Decision is the outcome of evaluating a request.
type Decision int

const (
	NotApplicable Decision = iota
	Permit
	Deny
	Indeterminate
	IndeterminateD
	IndeterminateP
	IndeterminateDP
)

var decisionNames = map[Decision]string{
	NotApplicable:   "NotApplicable",
	Permit:          "Permit",
	Deny:            "Deny",
	Indeterminate:   "Indeterminate",
	IndeterminateD:  "Indeterminate{D}",
	IndeterminateP:  "Indeterminate{P}",
	IndeterminateDP: "Indeterminate{DP}",
}

func (d Decision) String() string {
	if s, ok := decisionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// IsIndeterminate reports whether d is Indeterminate or one of its variants.
func (d Decision) IsIndeterminate() bool {
	return d >= Indeterminate && d <= IndeterminateDP
}

func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDecision(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDecision parses the string form produced by String.
func ParseDecision(s string) (Decision, error) {
	for d, name := range decisionNames {
		if name == s {
			return d, nil
		}
	}
	return NotApplicable, fmt.Errorf("unknown decision %q", s)
}

// Effect is the decision a rule yields when it applies.
type Effect string

const (
	EffectPermit Effect = "Permit"
	EffectDeny   Effect = "Deny"
)

// Decision converts an effect to its decision.
func (e Effect) Decision() Decision {
	if e == EffectDeny {
		return Deny
	}
	return Permit
}

// Status codes attached to results.
const (
	StatusOK               = "urn:oasis:names:tc:xacml:1.0:status:ok"
	StatusMissingAttribute = "urn:oasis:names:tc:xacml:1.0:status:missing-attribute"
	StatusProcessingError  = "urn:oasis:names:tc:xacml:1.0:status:processing-error"
	StatusSyntaxError      = "urn:oasis:names:tc:xacml:1.0:status:syntax-error"
)

// Status describes why a result was produced.
type Status struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// PolicyReference identifies a policy that contributed to a result.
type PolicyReference struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// Result is the decision for one individual request.
type Result struct {
	Decision          Decision          `json:"decision"`
	Status            *Status           `json:"status,omitempty"`
	Obligations       []Obligation      `json:"obligations,omitempty"`
	Advice            []Advice          `json:"advice,omitempty"`
	Attributes        []Category        `json:"attributes,omitempty"`
	PolicyIdentifiers []PolicyReference `json:"policyIdentifiers,omitempty"`
}

// Response carries one result per individual request.
type Response struct {
	Results []Result `json:"results"`
}
