// Package models holds the generic decision request and response shapes
// exchanged with decision clients.
package models

import (
	"strings"

	dErrors "pdpnode/pkg/domain-errors"
)

// DecisionRequest asks which policies apply to a context.
type DecisionRequest struct {
	OnapName        string         `json:"onapName,omitempty"`
	OnapComponent   string         `json:"onapComponent,omitempty"`
	OnapInstance    string         `json:"onapInstance,omitempty"`
	RequestID       string         `json:"requestId,omitempty"`
	Action          string         `json:"action"`
	CurrentDateTime string         `json:"currentDateTime,omitempty"`
	TimeZone        string         `json:"timeZone,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	Resource        map[string]any `json:"resource,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	return nil
}

// DecisionResponse is the shaped decision outcome.
type DecisionResponse struct {
	Status      string         `json:"status,omitempty"`
	Message     string         `json:"message,omitempty"`
	Advice      map[string]any `json:"advice,omitempty"`
	Obligations map[string]any `json:"obligations,omitempty"`
	Policies    map[string]any `json:"policies,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// DecisionParams are the optional query parameters of a decision request.
type DecisionParams struct {
	// Abbreviate drops policy properties from returned policies.
	Abbreviate bool
}
