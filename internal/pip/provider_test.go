package pip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pdpnode/internal/native"
	"pdpnode/internal/pip/history"
	"pdpnode/internal/pip/history/mocks"
	"pdpnode/pkg/requestcontext"
)

// Justification for unit tests: providers sit on a security boundary and
// absorb every store failure, so each degraded path is asserted directly.
type ProviderSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	counter *OperationCounter
	outcome *OutcomeResolver
	ctx     context.Context
	now     time.Time
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.counter = NewOperationCounter(s.store, WithLogger(logger))
	s.outcome = NewOutcomeResolver(s.store, WithLogger(logger))
	s.now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ProviderSuite) TearDownTest() {
	s.ctrl.Finish()
}

func countInputs() map[string][]native.AttributeValue {
	return map[string][]native.AttributeValue{
		AttributeActorID:     {native.StringValue("SO")},
		AttributeOperationID: {native.StringValue("Restart")},
		AttributeTargetID:    {native.StringValue("vnf-1")},
	}
}

func (s *ProviderSuite) countRequest(issuer string) Request {
	return Request{AttributeID: AttributeOperationCount, Issuer: issuer, Inputs: countInputs()}
}

func (s *ProviderSuite) TestIssuerIsolation() {
	issuers := []string{
		"",
		"tw:10:minute",
		"urn:org:onap:xacml:other:tw:10:minute",
		"urn:org:onap:xacml:guar:tw:10:minute",
		"URN:ORG:ONAP:XACML:GUARD:tw:10:minute",
		"x" + GuardIssuerPrefix + "tw:10:minute",
	}
	for _, issuer := range issuers {
		s.True(s.counter.Resolve(s.ctx, s.countRequest(issuer)).IsEmpty(), "count issuer %q", issuer)
		req := Request{AttributeID: AttributeOperationOutcome, Issuer: issuer + "clname:loop"}
		if issuer == "" {
			req.Issuer = ""
		}
		s.True(s.outcome.Resolve(s.ctx, req).IsEmpty(), "outcome issuer %q", req.Issuer)
	}
}

func (s *ProviderSuite) TestCountWindow() {
	s.store.EXPECT().CountOperations(gomock.Any(), history.CountQuery{
		Actor:     "SO",
		Operation: "Restart",
		Target:    "vnf-1",
		Since:     s.now.Add(-10 * time.Minute),
		Until:     s.now,
	}).Return(history.CountFound(3))

	resp := s.counter.Resolve(s.ctx, s.countRequest(CountIssuer(10, "minute")))

	s.Equal([]native.AttributeValue{native.IntegerValue(3)}, resp.Values)
}

func (s *ProviderSuite) TestCountMissingInputs() {
	for _, missing := range []string{AttributeActorID, AttributeOperationID, AttributeTargetID} {
		req := s.countRequest(CountIssuer(10, "minute"))
		delete(req.Inputs, missing)
		s.True(s.counter.Resolve(s.ctx, req).IsEmpty(), missing)
	}
}

func (s *ProviderSuite) TestCountFailuresYieldSentinel() {
	failure := []native.AttributeValue{native.IntegerValue(FailureCount)}

	s.Run("unsupported unit", func() {
		resp := s.counter.Resolve(s.ctx, s.countRequest(GuardIssuerPrefix+"tw:1:fortnight"))
		s.Equal(failure, resp.Values)
	})

	s.Run("window too long", func() {
		resp := s.counter.Resolve(s.ctx, s.countRequest(CountIssuer(3000000, "hour")))
		s.Equal(failure, resp.Values)
	})

	s.Run("query failure", func() {
		s.store.EXPECT().CountOperations(gomock.Any(), gomock.Any()).Return(history.CountFailed(errors.New("timeout")))
		resp := s.counter.Resolve(s.ctx, s.countRequest(CountIssuer(1, "hour")))
		s.Equal(failure, resp.Values)
	})

	s.Run("no store configured", func() {
		resp := NewOperationCounter(nil).Resolve(s.ctx, s.countRequest(CountIssuer(1, "hour")))
		s.Equal(failure, resp.Values)
	})
}

func (s *ProviderSuite) TestOutcomeNormalization() {
	req := Request{AttributeID: AttributeOperationOutcome, Issuer: OutcomeIssuer("loop-a")}

	s.Run("started is in progress", func() {
		s.store.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeFound("Started"))
		s.Equal([]native.AttributeValue{native.StringValue(OutcomeInProgress)}, s.outcome.Resolve(s.ctx, req).Values)
	})

	s.Run("anything else is complete", func() {
		s.store.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeFound("Failure_Timeout"))
		s.Equal([]native.AttributeValue{native.StringValue(OutcomeComplete)}, s.outcome.Resolve(s.ctx, req).Values)
	})

	s.Run("blank outcome is empty", func() {
		s.store.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeFound(""))
		s.True(s.outcome.Resolve(s.ctx, req).IsEmpty())
	})

	s.Run("no row is empty", func() {
		s.store.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeNotFound())
		s.True(s.outcome.Resolve(s.ctx, req).IsEmpty())
	})

	s.Run("failure is empty", func() {
		s.store.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeFailed(errors.New("down")))
		s.True(s.outcome.Resolve(s.ctx, req).IsEmpty())
	})

	s.Run("missing closed loop name is empty", func() {
		s.True(s.outcome.Resolve(s.ctx, Request{Issuer: GuardIssuerPrefix + "clname:"}).IsEmpty())
		s.True(s.outcome.Resolve(s.ctx, Request{Issuer: GuardIssuerPrefix + "tw:1:hour"}).IsEmpty())
	})
}

func (s *ProviderSuite) TestDeclaredInputs() {
	s.Len(s.counter.Required(), 3)
	s.Equal(AttributeTargetID, s.outcome.Required()[0].AttributeID)
	s.True(s.counter.Supports(AttributeOperationCount))
	s.False(s.counter.Supports(AttributeOperationOutcome))
	s.True(s.outcome.Supports(AttributeOperationOutcome))
}
