package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// nodeStates are the values the state gauge is reset across.
var nodeStates = []string{"PASSIVE", "SAFE", "TEST", "ACTIVE", "TERMINATED"}

// Metrics holds the node-level Prometheus metrics.
type Metrics struct {
	ControlMessages *prometheus.CounterVec
	NodeState       *prometheus.GaugeVec
	BuildInfo       *prometheus.GaugeVec
}

// New creates and registers the node metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ControlMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pdpnode_control_messages_total",
			Help: "Control messages received from the coordinator by type and result",
		}, []string{"message", "result"}), // result: "applied", "dropped", "failed"
		NodeState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pdpnode_state",
			Help: "1 for the current lifecycle state of the node",
		}, []string{"state"}),
		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pdpnode_build_info",
			Help: "Node identity and type",
		}, []string{"name", "pdp_type"}),
	}
}

// IncrementControlMessage counts one handled control message.
func (m *Metrics) IncrementControlMessage(message, result string) {
	if m != nil {
		m.ControlMessages.WithLabelValues(message, result).Inc()
	}
}

// SetState marks state as current and clears the others.
func (m *Metrics) SetState(state string) {
	if m == nil {
		return
	}
	for _, s := range nodeStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.NodeState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) SetBuildInfo(name, pdpType string) {
	if m != nil {
		m.BuildInfo.WithLabelValues(name, pdpType).Set(1)
	}
}
