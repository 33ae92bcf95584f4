package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for attribute providers.
type Metrics struct {
	Lookups *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pdpnode_pip_lookups_total",
			Help: "Attribute provider lookups by provider and result",
		}, []string{"provider", "result"}),
	}
}

// IncrementLookup records one history lookup.
func (m *Metrics) IncrementLookup(provider, result string) {
	if m != nil {
		m.Lookups.WithLabelValues(provider, result).Inc()
	}
}
