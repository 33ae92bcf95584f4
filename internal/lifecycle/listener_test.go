package lifecycle

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"pdpnode/internal/application"
	"pdpnode/internal/application/builtin"
	"pdpnode/internal/lifecycle/models"
	"pdpnode/internal/platform/metrics"
	"pdpnode/internal/statistics"
	"pdpnode/internal/tosca"
)

type recordingPublisher struct {
	mu       sync.Mutex
	statuses []models.Status
}

func (p *recordingPublisher) Publish(_ context.Context, status models.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, status)
	return nil
}

func (p *recordingPublisher) last() models.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statuses[len(p.statuses)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.statuses)
}

type recordingInterval struct{ d time.Duration }

func (r *recordingInterval) SetInterval(d time.Duration) { r.d = d }

// ListenerSuite drives raw control messages through a real registry.
type ListenerSuite struct {
	suite.Suite
	ctx       context.Context
	registry  *application.Registry
	stats     *statistics.Collector
	endpoint  *fakeEndpoint
	publisher *recordingPublisher
	interval  *recordingInterval
	metrics   *metrics.Metrics
	listener  *Listener
}

func TestListenerSuite(t *testing.T) {
	suite.Run(t, new(ListenerSuite))
}

func (s *ListenerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	apps, err := builtin.Discover([]string{builtin.Naming, builtin.Monitoring}, builtin.Deps{Logger: logger})
	s.Require().NoError(err)
	s.registry = application.NewRegistry(application.WithRegistryLogger(logger))
	for _, app := range apps {
		s.Require().NoError(s.registry.Register(app))
	}
	s.stats = statistics.NewCollector()
	s.endpoint = &fakeEndpoint{}
	s.publisher = &recordingPublisher{}
	s.interval = &recordingInterval{}
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())

	sm := New("xacml", s.endpoint, s.registry, WithName(nodeName), WithGroup("defaultGroup"), WithLogger(logger))
	s.listener = NewListener(sm, s.registry, s.stats, s.publisher,
		WithHeartbeat(s.interval), WithListenerLogger(logger), WithMessageMetrics(s.metrics))
}

func policy(name, policyType string) *tosca.Policy {
	return &tosca.Policy{
		Name:        name,
		Version:     "1.0.0",
		Type:        policyType,
		TypeVersion: "1.0.0",
		Metadata:    map[string]any{tosca.MetadataPolicyID: name, tosca.MetadataPolicyVersion: "1.0.0"},
		Properties:  map[string]any{"k": "v"},
	}
}

func (s *ListenerSuite) send(msg any) {
	data, err := json.Marshal(msg)
	s.Require().NoError(err)
	s.Require().NoError(s.listener.HandleMessage(s.ctx, data))
}

func (s *ListenerSuite) TestUpdateDeploysAndAcknowledges() {
	broken := policy("broken", "onap.policies.Naming")
	broken.Metadata = nil
	s.send(models.Update{
		Message:                models.Message{MessageName: models.MessageUpdate, RequestID: "u1", Name: nodeName, PdpGroup: "defaultGroup", PdpSubgroup: "xacml"},
		PdpHeartbeatIntervalMs: 30000,
		PoliciesToBeDeployed: []*tosca.Policy{
			policy("naming-1", "onap.policies.Naming"),
			broken,
			policy("cfg-1", "onap.policies.monitoring.tcagen2"),
			policy("other", "onap.policies.Unknown"),
		},
	})

	ack := s.publisher.last()
	s.Equal("u1", ack.Response.ResponseTo)
	s.Equal(models.ResponseFail, ack.Response.ResponseStatus)
	s.Contains(ack.Response.ResponseMessage, "metadata.policy-id")
	s.Contains(ack.Response.ResponseMessage, "onap.policies.Unknown")
	s.Equal([]tosca.ConceptIdentifier{{Name: "cfg-1", Version: "1.0.0"}, {Name: "naming-1", Version: "1.0.0"}}, ack.Policies)
	s.Equal("xacml", ack.PdpSubgroup)
	s.Equal(30*time.Second, s.interval.d)

	snap := s.stats.Snapshot()
	s.Equal(int64(2), snap.DeploySuccess)
	s.Equal(int64(2), snap.DeployFailure)
	s.Equal(int64(2), snap.TotalPolicies)

	s.send(models.Update{
		Message:                models.Message{MessageName: models.MessageUpdate, RequestID: "u2", Name: nodeName, PdpSubgroup: "xacml"},
		PoliciesToBeUndeployed: []tosca.ConceptIdentifier{{Name: "naming-1", Version: "1.0.0"}, {Name: "ghost", Version: "1.0.0"}},
	})
	ack = s.publisher.last()
	s.Equal(models.ResponseFail, ack.Response.ResponseStatus)
	s.Equal([]tosca.ConceptIdentifier{{Name: "cfg-1", Version: "1.0.0"}}, ack.Policies)
	snap = s.stats.Snapshot()
	s.Equal(int64(1), snap.UndeploySuccess)
	s.Equal(int64(1), snap.UndeployFailure)
	s.Equal(int64(2), snap.TotalPolicies)
}

func (s *ListenerSuite) TestStateChangeGatesEndpoint() {
	s.send(models.StateChange{
		Message: models.Message{MessageName: models.MessageStateChange, RequestID: "s1", PdpGroup: "defaultGroup"},
		State:   models.StateActive,
	})
	s.True(s.endpoint.Enabled())
	s.Equal(models.StateActive, s.publisher.last().State)
	s.Equal("s1", s.publisher.last().Response.ResponseTo)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.NodeState.WithLabelValues("ACTIVE")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ControlMessages.WithLabelValues("PDP_STATE_CHANGE", "applied")))
}

func (s *ListenerSuite) TestMessagesForOthersAreDropped() {
	s.send(models.StateChange{
		Message: models.Message{MessageName: models.MessageStateChange, RequestID: "s1", Name: "xacml-other"},
		State:   models.StateActive,
	})
	s.send(models.Update{
		Message:              models.Message{MessageName: models.MessageUpdate, RequestID: "u1", PdpGroup: "otherGroup"},
		PoliciesToBeDeployed: []*tosca.Policy{policy("naming-1", "onap.policies.Naming")},
	})
	s.send(models.Status{Message: models.Message{MessageName: models.MessageStatus, Name: "xacml-other"}})

	s.Zero(s.publisher.count())
	s.False(s.endpoint.Enabled())
	s.Empty(s.registry.PolicyIdentifiers())
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ControlMessages.WithLabelValues("PDP_UPDATE", "dropped")))
}

func (s *ListenerSuite) TestMalformedMessage() {
	s.Error(s.listener.HandleMessage(s.ctx, []byte("{not json")))
	s.NoError(s.listener.HandleMessage(s.ctx, []byte(`{"messageName":"PDP_TOPIC_CHECK"}`)))
}
