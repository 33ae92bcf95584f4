package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for decision routing.
type Metrics struct {
	// Decision results by application and decision
	DecisionOutcome *prometheus.CounterVec

	// Requests that produced no result, by application and reason
	DecisionErrors *prometheus.CounterVec

	// Routing plus evaluation latency
	DecisionLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all decision metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pdpnode_decision_outcomes_total",
			Help: "Total decision results by application and decision",
		}, []string{"application", "decision"}),

		DecisionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pdpnode_decision_errors_total",
			Help: "Decision requests that failed before producing a result",
		}, []string{"application", "reason"}), // reason: "routing", "convert", "no_response"

		DecisionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdpnode_decision_duration_seconds",
			Help:    "Duration of decision routing and evaluation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"application"}),
	}
}

// IncrementOutcome records one decision result.
func (m *Metrics) IncrementOutcome(application, decision string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(application, decision).Inc()
	}
}

// IncrementError records a failed decision request.
func (m *Metrics) IncrementError(application, reason string) {
	if m != nil {
		m.DecisionErrors.WithLabelValues(application, reason).Inc()
	}
}

// ObserveDecisionLatency records the total decision duration.
func (m *Metrics) ObserveDecisionLatency(application string, d time.Duration) {
	if m != nil {
		m.DecisionLatency.WithLabelValues(application).Observe(d.Seconds())
	}
}
