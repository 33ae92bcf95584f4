package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetStateIsExclusive(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.SetState("ACTIVE")
	m.SetState("SAFE")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeState.WithLabelValues("SAFE")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NodeState.WithLabelValues("ACTIVE")))
}

func TestControlMessages(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncrementControlMessage("PDP_UPDATE", "applied")
	m.IncrementControlMessage("PDP_UPDATE", "applied")
	m.IncrementControlMessage("PDP_UPDATE", "dropped")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ControlMessages.WithLabelValues("PDP_UPDATE", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ControlMessages.WithLabelValues("PDP_UPDATE", "dropped")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetState("ACTIVE")
		m.IncrementControlMessage("PDP_STATUS", "dropped")
		m.SetBuildInfo("xacml-1", "xacml")
	})
}
