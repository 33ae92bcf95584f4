// Package tosca models the generic, versioned policy documents delivered by
// the coordinator and the policy type definitions that describe them.
package tosca

import "strings"

// PolicyTypeIdentifier names a policy family. Equality is structural.
type PolicyTypeIdentifier struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

func (p PolicyTypeIdentifier) String() string {
	return p.Name + ":" + p.Version
}

// HasPrefix reports whether the type name starts with prefix.
func (p PolicyTypeIdentifier) HasPrefix(prefix string) bool {
	return strings.HasPrefix(p.Name, prefix)
}

// ConceptIdentifier names a deployed policy.
type ConceptIdentifier struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (c ConceptIdentifier) String() string {
	return c.Name + ":" + c.Version
}

// Less orders identifiers by name, then version.
func (c ConceptIdentifier) Less(o ConceptIdentifier) bool {
	if c.Name != o.Name {
		return c.Name < o.Name
	}
	return c.Version < o.Version
}
