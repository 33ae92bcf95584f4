package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"pdpnode/internal/tosca"
)

// Registry resolves requests to applications in registration order.
type Registry struct {
	mu     sync.RWMutex
	apps   []*Application
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends app. Two applications with the same name, or two
// unconditional applications sharing an action, are rejected since Find
// could no longer tell them apart.
func (r *Registry) Register(app *Application) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.Name() == app.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicate, app.Name())
		}
		if !existing.Unconditional() || !app.Unconditional() {
			continue
		}
		for _, action := range app.spec.Actions {
			if existing.Serves(action) {
				return fmt.Errorf("%w: action %s is already served by %s", ErrDuplicate, action, existing.Name())
			}
		}
	}
	r.apps = append(r.apps, app)
	r.logger.Info("application registered",
		"application", app.Name(),
		"actions", app.spec.Actions,
		"types", len(app.spec.Types),
	)
	return nil
}

// Find returns the first application accepting action.
func (r *Registry) Find(action string) (*Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, app := range r.apps {
		if app.Accepts(action) {
			return app, nil
		}
	}
	return nil, &RoutingError{Action: action}
}

// ForPolicyType returns the first application supporting the type.
func (r *Registry) ForPolicyType(id tosca.PolicyTypeIdentifier) (*Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, app := range r.apps {
		if app.SupportsType(id) {
			return app, true
		}
	}
	return nil, false
}

// Applications returns the registered applications in order.
func (r *Registry) Applications() []*Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Application(nil), r.apps...)
}

// Deploy loads doc into the application supporting its type.
func (r *Registry) Deploy(ctx context.Context, doc *tosca.Policy) (*Application, error) {
	if doc == nil {
		return nil, fmt.Errorf("policy is required")
	}
	app, ok := r.ForPolicyType(doc.TypeIdentifier())
	if !ok {
		return nil, &UnsupportedTypeError{Type: doc.TypeIdentifier()}
	}
	if err := app.Load(ctx, doc); err != nil {
		return app, err
	}
	return app, nil
}

// Undeploy unloads the policy from whichever application holds it.
func (r *Registry) Undeploy(ctx context.Context, id tosca.ConceptIdentifier) (*Application, error) {
	for _, app := range r.Applications() {
		if app.Unload(ctx, id) {
			return app, nil
		}
	}
	return nil, &NotDeployedError{Policy: id}
}

// PolicyIdentifiers lists every loaded policy across applications, sorted.
func (r *Registry) PolicyIdentifiers() []tosca.ConceptIdentifier {
	var ids []tosca.ConceptIdentifier
	for _, app := range r.Applications() {
		ids = append(ids, app.Policies()...)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Deployed reports whether the policy is loaded anywhere.
func (r *Registry) Deployed(id tosca.ConceptIdentifier) bool {
	for _, app := range r.Applications() {
		if app.Holds(id) {
			return true
		}
	}
	return false
}

// SupportedTypes lists the exact policy types the applications declare.
// Prefix matchers are reported with a trailing "*".
func (r *Registry) SupportedTypes() []tosca.PolicyTypeIdentifier {
	var out []tosca.PolicyTypeIdentifier
	for _, app := range r.Applications() {
		for _, m := range app.spec.Types {
			name := m.Name
			if m.Prefix {
				name += "*"
			}
			out = append(out, tosca.PolicyTypeIdentifier{Name: name, Version: m.Version})
		}
	}
	return out
}
