// Package translator converts policy documents into native policies, and
// generic decision requests and native responses into each other.
package translator

import (
	"fmt"

	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/tosca"
)

// Translator is the per-application conversion strategy.
type Translator interface {
	// Translate converts one document. It performs no I/O and returns the
	// same output for the same input.
	Translate(doc *tosca.Policy) ([]*native.Policy, error)
	ConvertRequest(req *models.DecisionRequest) (*native.Request, error)
	ConvertResponse(resp *native.Response, params models.DecisionParams) *models.DecisionResponse
}

// TranslationError reports a malformed or incomplete policy document.
type TranslationError struct {
	Policy string
	Field  string
	Reason string
}

func (e *TranslationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is missing"
	}
	return fmt.Sprintf("policy %q: %s %s", e.Policy, e.Field, reason)
}

func missing(doc *tosca.Policy, field string) error {
	return &TranslationError{Policy: doc.Name, Field: field}
}

func invalid(doc *tosca.Policy, field, format string, args ...any) error {
	return &TranslationError{Policy: doc.Name, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RequestError reports a decision request a translator cannot convert.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return "invalid decision request: " + e.Reason
}

// validate checks required fields in a fixed order and fails on the first
// missing one.
func validate(doc *tosca.Policy) error {
	if doc == nil {
		return &TranslationError{Field: "document"}
	}
	switch {
	case doc.PolicyID() == "":
		return missing(doc, "metadata.policy-id")
	case doc.PolicyVersion() == "":
		return missing(doc, "metadata.policy-version")
	case doc.Type == "":
		return missing(doc, "type")
	case doc.TypeVersion == "":
		return missing(doc, "type_version")
	case doc.Properties == nil:
		return missing(doc, "properties")
	}
	return nil
}
