// Package application holds the policy handlers of the node and routes
// decision requests to them.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pdpnode/internal/decision/models"
	"pdpnode/internal/native"
	"pdpnode/internal/tosca"
	"pdpnode/internal/translator"
)

//go:generate mockgen -source=application.go -destination=mocks/mocks.go -package=mocks DecisionEngine

// DecisionEngine evaluates a native request against a policy set.
type DecisionEngine interface {
	Decide(ctx context.Context, req *native.Request, policies []*native.Policy) *native.Response
}

// TypeMatcher accepts a policy type by exact identity, or by name prefix
// when Prefix is set. An empty Version accepts every version.
type TypeMatcher struct {
	Name    string
	Version string
	Prefix  bool
}

func Exact(name, version string) TypeMatcher {
	return TypeMatcher{Name: name, Version: version}
}

func NamePrefix(prefix string) TypeMatcher {
	return TypeMatcher{Name: prefix, Prefix: true}
}

func (m TypeMatcher) Matches(id tosca.PolicyTypeIdentifier) bool {
	if m.Version != "" && m.Version != id.Version {
		return false
	}
	if m.Prefix {
		return id.HasPrefix(m.Name)
	}
	return m.Name == id.Name
}

// Spec describes an application. Applications are data: the registry
// dispatches on Actions and Types, never on the concrete translator.
type Spec struct {
	Name    string
	Actions []string
	Types   []TypeMatcher
	// Unconditional applications serve their actions even with no policy
	// loaded.
	Unconditional bool
	Translator    translator.Translator
	Engine        DecisionEngine
}

// InitParams are supplied once at startup.
type InitParams struct {
	StoragePath string
}

type loaded struct {
	doc      *tosca.Policy
	policies []*native.Policy
}

// Application owns the loaded policies of one policy type family.
type Application struct {
	spec   Spec
	logger *slog.Logger

	initMu      sync.Mutex
	initialized bool
	storagePath string

	mu       sync.RWMutex
	loaded   map[tosca.ConceptIdentifier]loaded
	snapshot []*native.Policy
}

// Option configures an Application.
type Option func(*Application)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

// New validates spec and creates the application.
func New(spec Spec, opts ...Option) (*Application, error) {
	switch {
	case strings.TrimSpace(spec.Name) == "":
		return nil, fmt.Errorf("application name is required")
	case len(spec.Actions) == 0:
		return nil, fmt.Errorf("application %s: at least one action is required", spec.Name)
	case spec.Translator == nil:
		return nil, fmt.Errorf("application %s: translator is required", spec.Name)
	case spec.Engine == nil:
		return nil, fmt.Errorf("application %s: decision engine is required", spec.Name)
	}
	a := &Application{
		spec:   spec,
		logger: slog.Default(),
		loaded: make(map[tosca.ConceptIdentifier]loaded),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Application) Name() string {
	return a.spec.Name
}

func (a *Application) Actions() []string {
	return append([]string(nil), a.spec.Actions...)
}

func (a *Application) Types() []TypeMatcher {
	return append([]TypeMatcher(nil), a.spec.Types...)
}

func (a *Application) Unconditional() bool {
	return a.spec.Unconditional
}

// Initialize prepares the application storage directory. It may only be
// called once.
func (a *Application) Initialize(params InitParams) error {
	a.initMu.Lock()
	defer a.initMu.Unlock()
	if a.initialized {
		return ErrAlreadyInitialized
	}
	if params.StoragePath != "" {
		dir := filepath.Join(params.StoragePath, a.spec.Name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("application %s: create storage: %w", a.spec.Name, err)
		}
		a.storagePath = dir
	}
	a.initialized = true
	return nil
}

// StoragePath is the directory assigned by Initialize, "" when none.
func (a *Application) StoragePath() string {
	a.initMu.Lock()
	defer a.initMu.Unlock()
	return a.storagePath
}

// Serves reports whether action is one of the application actions.
func (a *Application) Serves(action string) bool {
	for _, act := range a.spec.Actions {
		if act == action {
			return true
		}
	}
	return false
}

// SupportsType reports whether the application handles the policy type.
func (a *Application) SupportsType(id tosca.PolicyTypeIdentifier) bool {
	for _, m := range a.spec.Types {
		if m.Matches(id) {
			return true
		}
	}
	return false
}

// Accepts reports whether a request for action routes here.
func (a *Application) Accepts(action string) bool {
	if !a.Serves(action) {
		return false
	}
	if a.spec.Unconditional {
		return true
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.loaded) > 0
}

// Load translates doc and adds the result, replacing any policy with the same
// name whatever its version. A translation failure leaves the loaded set
// untouched.
func (a *Application) Load(ctx context.Context, doc *tosca.Policy) error {
	if doc == nil {
		return fmt.Errorf("application %s: policy is required", a.spec.Name)
	}
	if !a.SupportsType(doc.TypeIdentifier()) {
		return &UnsupportedTypeError{Type: doc.TypeIdentifier()}
	}
	policies, err := a.spec.Translator.Translate(doc)
	if err != nil {
		return err
	}

	id := doc.Identifier()
	var replaced []string
	a.mu.Lock()
	for other := range a.loaded {
		if other.Name == id.Name && other != id {
			delete(a.loaded, other)
			replaced = append(replaced, other.String())
		}
	}
	a.loaded[id] = loaded{doc: doc, policies: policies}
	a.rebuildLocked()
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "policy loaded",
		"application", a.spec.Name,
		"policy", id.String(),
		"type", doc.TypeIdentifier().String(),
		"native_policies", len(policies),
		"replaced", replaced,
	)
	return nil
}

// Unload removes a policy. It reports whether the policy was loaded.
func (a *Application) Unload(ctx context.Context, id tosca.ConceptIdentifier) bool {
	a.mu.Lock()
	_, ok := a.loaded[id]
	if ok {
		delete(a.loaded, id)
		a.rebuildLocked()
	}
	a.mu.Unlock()

	if ok {
		a.logger.InfoContext(ctx, "policy unloaded", "application", a.spec.Name, "policy", id.String())
	}
	return ok
}

// rebuildLocked refreshes the evaluation snapshot in identifier order.
func (a *Application) rebuildLocked() {
	ids := make([]tosca.ConceptIdentifier, 0, len(a.loaded))
	for id := range a.loaded {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	snapshot := make([]*native.Policy, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, a.loaded[id].policies...)
	}
	a.snapshot = snapshot
}

// Holds reports whether the policy is loaded.
func (a *Application) Holds(id tosca.ConceptIdentifier) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.loaded[id]
	return ok
}

// Policies returns the loaded policy identifiers in order.
func (a *Application) Policies() []tosca.ConceptIdentifier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]tosca.ConceptIdentifier, 0, len(a.loaded))
	for id := range a.loaded {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

func (a *Application) policies() []*native.Policy {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Evaluate converts and evaluates a generic request. The native response is
// returned alongside the shaped one so callers can account for every result.
func (a *Application) Evaluate(ctx context.Context, req *models.DecisionRequest, params models.DecisionParams) (*models.DecisionResponse, *native.Response, error) {
	nreq, err := a.spec.Translator.ConvertRequest(req)
	if err != nil {
		return nil, nil, err
	}
	resp := a.spec.Engine.Decide(ctx, nreq, a.policies())
	if resp == nil {
		return nil, nil, nil
	}
	return a.spec.Translator.ConvertResponse(resp, params), resp, nil
}

// EvaluateNative evaluates a native request as is.
func (a *Application) EvaluateNative(ctx context.Context, req *native.Request) *native.Response {
	return a.spec.Engine.Decide(ctx, req, a.policies())
}
