package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pdpnode/internal/application"
	"pdpnode/internal/application/builtin"
	"pdpnode/internal/decision"
	"pdpnode/internal/statistics"
	"pdpnode/internal/tosca"
	"pdpnode/pkg/testutil"
)

// HandlerSuite runs the decision routes against the built-in applications.
// Handler tests validate HTTP concerns: gating, parsing, response mapping.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	gate   *Gate
	stats  *statistics.Collector
	health error
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	apps, err := builtin.Discover(nil, builtin.Deps{Logger: logger})
	s.Require().NoError(err)
	registry := application.NewRegistry(application.WithRegistryLogger(logger))
	for _, app := range apps {
		s.Require().NoError(registry.Register(app))
	}
	_, err = registry.Deploy(context.Background(), &tosca.Policy{
		Name:        "naming-1",
		Version:     "1.0.0",
		Type:        "onap.policies.Naming",
		TypeVersion: "1.0.0",
		Metadata:    map[string]any{tosca.MetadataPolicyID: "naming-1", tosca.MetadataPolicyVersion: "1.0.0"},
		Properties:  map[string]any{"policy-instance-name": "ONAP_NF_NAMING_TIMESTAMP"},
	})
	s.Require().NoError(err)

	s.stats = statistics.NewCollector()
	s.gate = NewGate()
	s.health = nil
	h := New(decision.New(registry, s.stats, decision.WithLogger(logger)), s.stats, s.gate, logger,
		WithHealthCheck(func(context.Context) error { return s.health }))

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) post(path string, body string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, body)
	return testutil.DoRequest(s.router, testutil.WithRequestID(req, "req-test"))
}

func (s *HandlerSuite) TestDecisionGatedWhilePassive() {
	rec := s.post(PathDecision, `{"action":"naming","resource":{"policy-type":"onap.policies.Naming"}}`)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusServiceUnavailable, "service_unavailable")

	s.gate.Enable()
	rec = s.post(PathDecision, `{"action":"naming","resource":{"policy-type":"onap.policies.Naming"}}`)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	s.gate.Disable()
	rec = s.post(PathNative, `{"categories":[]}`)
	assert.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerSuite) TestDecisionReturnsPolicies() {
	s.gate.Enable()
	rec := s.post(PathDecision+"?abbrev=true", `{"onapName":"SDNC","action":"naming","resource":{"policy-id":["naming-1"]}}`)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	body := testutil.UnmarshalResponse[struct {
		Status   string                    `json:"status"`
		Policies map[string]map[string]any `json:"policies"`
	}](s.T(), rec)
	assert.Equal(s.T(), "Permit", body.Status)
	require.Contains(s.T(), body.Policies, "naming-1")
	assert.NotContains(s.T(), body.Policies["naming-1"], "properties")
}

func (s *HandlerSuite) TestDecisionErrors() {
	s.gate.Enable()
	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"invalid json", PathDecision, "not json", http.StatusBadRequest},
		{"missing action", PathDecision, `{"resource":{}}`, http.StatusBadRequest},
		{"unknown action", PathDecision, `{"action":"launch"}`, http.StatusBadRequest},
		{"bad abbrev", PathDecision + "?abbrev=maybe", `{"action":"naming"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			assert.Equal(s.T(), tt.code, s.post(tt.path, tt.body).Code)
		})
	}
}

func (s *HandlerSuite) TestStatisticsReflectDecisions() {
	s.gate.Enable()
	s.post(PathDecision, `{"action":"naming","resource":{"policy-id":"naming-1"}}`)
	s.post(PathDecision, `{"action":"naming","resource":{"policy-id":"other"}}`)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathStatistics, nil))
	require.Equal(s.T(), http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(s.T(), json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(s.T(), float64(1), body["permitDecisionsCount"])
	assert.Equal(s.T(), float64(1), body["notApplicableDecisionsCount"])
}

func (s *HandlerSuite) TestHealthcheck() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealthcheck, nil))
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	s.health = errors.New("history store unreachable")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealthcheck, nil))
	assert.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(s.T(), json.NewDecoder(rec.Body).Decode(&body))
	assert.False(s.T(), body.Healthy)
	assert.Equal(s.T(), "history store unreachable", body.Message)
}
