// Package builtin discovers the applications shipped with the node.
package builtin

import (
	"fmt"
	"log/slog"

	"pdpnode/internal/application"
	"pdpnode/internal/native"
	"pdpnode/internal/native/engine"
	"pdpnode/internal/pip"
	"pdpnode/internal/tosca"
	"pdpnode/internal/translator"
)

// Application names.
const (
	Native       = "native"
	Monitoring   = "monitoring"
	Naming       = "naming"
	Match        = "match"
	Optimization = "optimization"
	Guard        = "guard"
)

// Names lists every built-in application in registration order.
var Names = []string{Native, Monitoring, Naming, Match, Optimization, Guard}

// Deps are the collaborators shared by the built-in applications.
type Deps struct {
	Catalog   *tosca.Catalog
	Providers []pip.Provider
	Logger    *slog.Logger
}

type definition struct {
	spec      func(Deps) application.Spec
	combining string
	providers bool
}

var definitions = map[string]definition{
	Native: {
		combining: native.CombineDenyOverrides,
		spec: func(Deps) application.Spec {
			return application.Spec{
				Actions:    []string{"native"},
				Types:      []application.TypeMatcher{application.Exact(translator.PolicyTypeNative, "1.0.0")},
				Translator: translator.NewNative(),
			}
		},
	},
	Monitoring: {
		combining: native.CombinePermitOverrides,
		spec: func(Deps) application.Spec {
			return application.Spec{
				Actions: []string{"configure"},
				Types: []application.TypeMatcher{
					application.NamePrefix("onap.policies.monitoring."),
					application.Exact("onap.Monitoring", ""),
				},
				Translator: translator.NewCombinedResults(),
			}
		},
	},
	Naming: {
		combining: native.CombinePermitOverrides,
		spec: func(Deps) application.Spec {
			return application.Spec{
				Actions:    []string{"naming"},
				Types:      []application.TypeMatcher{application.Exact("onap.policies.Naming", "1.0.0")},
				Translator: translator.NewCombinedResults(),
			}
		},
	},
	Match: {
		combining: native.CombinePermitOverrides,
		spec: func(d Deps) application.Spec {
			return application.Spec{
				Actions:    []string{"match"},
				Types:      []application.TypeMatcher{application.NamePrefix("onap.policies.match.")},
				Translator: translator.NewMatchable(d.Catalog),
			}
		},
	},
	Optimization: {
		combining: native.CombinePermitOverrides,
		spec: func(d Deps) application.Spec {
			return application.Spec{
				Actions:    []string{"optimize"},
				Types:      []application.TypeMatcher{application.NamePrefix("onap.policies.optimization.")},
				Translator: translator.NewMatchable(d.Catalog),
			}
		},
	},
	Guard: {
		combining: native.CombinePermitUnlessDeny,
		providers: true,
		spec: func(Deps) application.Spec {
			return application.Spec{
				Actions: []string{"guard"},
				Types: []application.TypeMatcher{
					application.Exact(translator.GuardFrequencyLimiter, "1.0.0"),
					application.Exact(translator.GuardMinMax, "1.0.0"),
					application.Exact(translator.GuardBlacklist, "1.0.0"),
					application.Exact(translator.GuardFirstBlocksSecond, "1.0.0"),
				},
				Translator: translator.NewGuard(),
			}
		},
	},
}

// Discover builds the named applications, in the order given. No names
// selects every built-in application.
func Discover(names []string, deps Deps) ([]*application.Application, error) {
	if len(names) == 0 {
		names = Names
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = tosca.NewCatalog()
	}

	apps := make([]*application.Application, 0, len(names))
	for _, name := range names {
		def, ok := definitions[name]
		if !ok {
			return nil, fmt.Errorf("unknown application %q", name)
		}
		opts := []engine.Option{engine.WithPolicyCombining(def.combining), engine.WithLogger(deps.Logger)}
		if def.providers {
			opts = append(opts, engine.WithProviders(deps.Providers...))
		}
		eng, err := engine.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("application %s: %w", name, err)
		}

		spec := def.spec(deps)
		spec.Name = name
		spec.Unconditional = true
		spec.Engine = eng
		app, err := application.New(spec, application.WithLogger(deps.Logger.With("application", name)))
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}
