package tosca

import (
	"encoding/json"
	"fmt"
)

const (
	MetadataPolicyID      = "policy-id"
	MetadataPolicyVersion = "policy-version"
)

// Policy is a policy document as delivered in deployment messages.
type Policy struct {
	Name        string         `json:"name"`
	Version     string         `json:"version,omitempty"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type"`
	TypeVersion string         `json:"type_version"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Identifier returns the deployed policy identity.
func (p *Policy) Identifier() ConceptIdentifier {
	return ConceptIdentifier{Name: p.Name, Version: p.Version}
}

// TypeIdentifier returns the policy type the document refers to.
func (p *Policy) TypeIdentifier() PolicyTypeIdentifier {
	return PolicyTypeIdentifier{Name: p.Type, Version: p.TypeVersion}
}

// MetadataString returns a metadata entry rendered as a string, "" when absent.
func (p *Policy) MetadataString(key string) string {
	v, ok := p.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// PolicyID is metadata.policy-id.
func (p *Policy) PolicyID() string {
	return p.MetadataString(MetadataPolicyID)
}

// PolicyVersion is metadata.policy-version.
func (p *Policy) PolicyVersion() string {
	return p.MetadataString(MetadataPolicyVersion)
}

// ParsePolicy decodes a single policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return &p, nil
}
