package tosca

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Definitions is the YAML document shape for policy type definition files.
type Definitions struct {
	Version     string                `yaml:"tosca_definitions_version"`
	PolicyTypes map[string]PolicyType `yaml:"policy_types"`
}

// PolicyType describes one policy type.
type PolicyType struct {
	DerivedFrom string                        `yaml:"derived_from"`
	Version     string                        `yaml:"version"`
	Description string                        `yaml:"description"`
	Properties  map[string]PropertyDefinition `yaml:"properties"`
}

// PropertyDefinition describes one property of a policy type.
type PropertyDefinition struct {
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Required    bool           `yaml:"required"`
	Metadata    map[string]any `yaml:"metadata"`
}

// Matchable reports whether the property is flagged matchable.
func (d PropertyDefinition) Matchable() bool {
	switch v := d.Metadata["matchable"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Catalog holds policy type definitions keyed by type identifier. It is safe
// for concurrent use and may be reloaded while serving.
type Catalog struct {
	mu    sync.RWMutex
	types map[PolicyTypeIdentifier]PolicyType
}

func NewCatalog() *Catalog {
	return &Catalog{types: make(map[PolicyTypeIdentifier]PolicyType)}
}

// Parse decodes a definitions document and adds its types to the catalog.
func (c *Catalog) Parse(data []byte) error {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("parse policy types: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, pt := range defs.PolicyTypes {
		if pt.Version == "" {
			pt.Version = "1.0.0"
		}
		c.types[PolicyTypeIdentifier{Name: name, Version: pt.Version}] = pt
	}
	return nil
}

// LoadDir parses every .yaml/.yml file in dir into a fresh set and swaps it
// in atomically. A parse failure leaves the previous definitions untouched.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read policy types dir: %w", err)
	}
	next := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !isDefinitionFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if err := next.Parse(data); err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
	}
	c.mu.Lock()
	c.types = next.types
	c.mu.Unlock()
	return nil
}

// Get returns the definition of a type.
func (c *Catalog) Get(id PolicyTypeIdentifier) (PolicyType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pt, ok := c.types[id]
	return pt, ok
}

// Len is the number of known types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// MatchableProperties returns the sorted names of matchable properties of a
// type, following derived_from within the catalog.
func (c *Catalog) MatchableProperties(id PolicyTypeIdentifier) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	visited := make(map[string]struct{})
	pt, ok := c.types[id]
	for ok {
		for name, def := range pt.Properties {
			if def.Matchable() {
				seen[name] = struct{}{}
			}
		}
		if pt.DerivedFrom == "" {
			break
		}
		if _, loop := visited[pt.DerivedFrom]; loop {
			break
		}
		visited[pt.DerivedFrom] = struct{}{}
		pt, ok = c.lookupByNameLocked(pt.DerivedFrom)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) lookupByNameLocked(name string) (PolicyType, bool) {
	var (
		best    PolicyType
		found   bool
		version string
	)
	for id, pt := range c.types {
		if id.Name == name && (!found || id.Version > version) {
			best, found, version = pt, true, id.Version
		}
	}
	return best, found
}

func isDefinitionFile(path string) bool {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(name, ".")
}
