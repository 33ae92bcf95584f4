// Package lifecycle tracks the operational state of the node under control
// of the coordinator.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pdpnode/internal/lifecycle/models"
	"pdpnode/internal/statistics"
	"pdpnode/internal/tosca"
)

// NamePrefix prefixes the generated node identity.
const NamePrefix = "xacml-"

// Endpoint is the decision API switched on while the node is ACTIVE.
type Endpoint interface {
	Enable()
	Disable()
}

// PolicySource lists the policies currently loaded.
type PolicySource interface {
	PolicyIdentifiers() []tosca.ConceptIdentifier
}

// StatsSource provides the counters reported in status messages.
type StatsSource interface {
	Snapshot() statistics.Snapshot
}

// HealthProbe reports whether the node is alive.
type HealthProbe func(ctx context.Context) bool

// StateMachine holds the node status. Every transition and every snapshot
// runs under one mutex. The health check runs outside it, on heartbeats only;
// other snapshots report the last known health.
type StateMachine struct {
	mu       sync.Mutex
	name     string
	pdpType  string
	state    models.State
	group    string
	subgroup string
	policies []tosca.ConceptIdentifier

	unhealthy atomic.Bool

	endpoint  Endpoint
	source    PolicySource
	stats     StatsSource
	probe     HealthProbe
	clock     func() time.Time
	requestID func() string
	logger    *slog.Logger
}

// Option configures a StateMachine.
type Option func(*StateMachine)

func WithLogger(logger *slog.Logger) Option {
	return func(sm *StateMachine) {
		sm.logger = logger
	}
}

// WithName replaces the generated identity.
func WithName(name string) Option {
	return func(sm *StateMachine) {
		sm.name = name
	}
}

// WithGroup sets the initial group assignment.
func WithGroup(group string) Option {
	return func(sm *StateMachine) {
		sm.group = group
	}
}

func WithStats(stats StatsSource) Option {
	return func(sm *StateMachine) {
		sm.stats = stats
	}
}

func WithHealthProbe(probe HealthProbe) Option {
	return func(sm *StateMachine) {
		sm.probe = probe
	}
}

func WithClock(clock func() time.Time) Option {
	return func(sm *StateMachine) {
		sm.clock = clock
	}
}

// New creates a PASSIVE node with a fresh identity.
func New(pdpType string, endpoint Endpoint, source PolicySource, opts ...Option) *StateMachine {
	sm := &StateMachine{
		name:      NamePrefix + uuid.NewString(),
		pdpType:   pdpType,
		state:     models.StatePassive,
		endpoint:  endpoint,
		source:    source,
		clock:     time.Now,
		requestID: uuid.NewString,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Name is the node identity, stable for the process lifetime.
func (sm *StateMachine) Name() string {
	return sm.name
}

func (sm *StateMachine) State() models.State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

func (sm *StateMachine) Terminated() bool {
	return sm.State() == models.StateTerminated
}

// ShouldHandle reports whether msg is addressed to this node.
func (sm *StateMachine) ShouldHandle(msg models.Message) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.shouldHandleLocked(msg)
}

func (sm *StateMachine) shouldHandleLocked(msg models.Message) bool {
	if msg.Name != "" {
		return msg.Name == sm.name
	}
	if msg.PdpGroup == "" || msg.PdpGroup != sm.group {
		return false
	}
	return msg.PdpSubgroup == "" || msg.PdpSubgroup == sm.subgroup
}

// ApplyStateChange applies msg and returns the acknowledgement. It returns
// false when the message is not for this node or the node is terminated.
func (sm *StateMachine) ApplyStateChange(ctx context.Context, msg models.StateChange) (models.Status, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.acceptLocked(ctx, msg.Message) {
		return models.Status{}, false
	}

	switch msg.State {
	case models.StateActive:
		sm.state = models.StateActive
		sm.endpoint.Enable()
	case models.StatePassive:
		sm.state = models.StatePassive
		sm.endpoint.Disable()
	default:
		sm.logger.WarnContext(ctx, "unsupported state change ignored",
			"request_id", msg.RequestID,
			"requested_state", msg.State,
			"state", sm.state,
		)
	}
	sm.logger.InfoContext(ctx, "state change applied",
		"request_id", msg.RequestID,
		"state", sm.state,
	)

	ack := sm.snapshotLocked()
	ack.Response = &models.ResponseDetails{ResponseTo: msg.RequestID, ResponseStatus: models.ResponseSuccess}
	return ack, true
}

// ApplyUpdate records the subgroup in msg and the policies now loaded. The
// acknowledgement fails iff errMessage is not blank.
func (sm *StateMachine) ApplyUpdate(ctx context.Context, msg models.Message, errMessage string) (models.Status, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.acceptLocked(ctx, msg) {
		return models.Status{}, false
	}

	if msg.PdpGroup != "" {
		sm.group = msg.PdpGroup
	}
	sm.subgroup = msg.PdpSubgroup
	sm.policies = sm.source.PolicyIdentifiers()

	ack := sm.snapshotLocked()
	ack.Response = &models.ResponseDetails{ResponseTo: msg.RequestID, ResponseStatus: models.ResponseSuccess}
	if strings.TrimSpace(errMessage) != "" {
		ack.Response.ResponseStatus = models.ResponseFail
		ack.Response.ResponseMessage = errMessage
	}
	sm.logger.InfoContext(ctx, "update applied",
		"request_id", msg.RequestID,
		"group", sm.group,
		"subgroup", sm.subgroup,
		"policies", len(sm.policies),
		"status", ack.Response.ResponseStatus,
	)
	return ack, true
}

func (sm *StateMachine) acceptLocked(ctx context.Context, msg models.Message) bool {
	if sm.state == models.StateTerminated {
		sm.logger.WarnContext(ctx, "control message on terminated node is unsupported",
			"request_id", msg.RequestID,
			"message", msg.MessageName,
		)
		return false
	}
	return sm.shouldHandleLocked(msg)
}

// Heartbeat checks health and returns the current status without changing
// it.
func (sm *StateMachine) Heartbeat(ctx context.Context) models.Status {
	if sm.probe != nil {
		sm.unhealthy.Store(!sm.probe(ctx))
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.snapshotLocked()
}

// Terminate moves the node to TERMINATED for good and returns the final
// status.
func (sm *StateMachine) Terminate(ctx context.Context) models.Status {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.state != models.StateTerminated {
		sm.state = models.StateTerminated
		sm.endpoint.Disable()
		sm.logger.InfoContext(ctx, "node terminated", "name", sm.name)
	}
	return sm.snapshotLocked()
}

func (sm *StateMachine) snapshotLocked() models.Status {
	now := sm.clock()
	health := models.Healthy
	if sm.unhealthy.Load() {
		health = models.NotHealthy
	}
	status := models.Status{
		Message: models.Message{
			MessageName: models.MessageStatus,
			RequestID:   sm.requestID(),
			TimestampMs: now.UnixMilli(),
			Name:        sm.name,
			PdpGroup:    sm.group,
			PdpSubgroup: sm.subgroup,
		},
		PdpType:  sm.pdpType,
		State:    sm.state,
		Healthy:  health,
		Policies: append([]tosca.ConceptIdentifier{}, sm.policies...),
	}
	if sm.stats != nil {
		status.Statistics = statisticsFrom(sm.stats.Snapshot(), sm.name, sm.group, sm.subgroup, now)
	}
	return status
}

func statisticsFrom(s statistics.Snapshot, name, group, subgroup string, now time.Time) *models.Statistics {
	success := s.Permit + s.Deny + s.NotApplicable
	fail := s.Indeterminate + s.TotalErrors
	return &models.Statistics{
		PdpInstanceID:              name,
		TimeStamp:                  now.UnixMilli(),
		PdpGroupName:               group,
		PdpSubGroupName:            subgroup,
		PolicyDeployCount:          s.DeploySuccess + s.DeployFailure,
		PolicyDeploySuccessCount:   s.DeploySuccess,
		PolicyDeployFailCount:      s.DeployFailure,
		PolicyUndeployCount:        s.UndeploySuccess + s.UndeployFailure,
		PolicyUndeploySuccessCount: s.UndeploySuccess,
		PolicyUndeployFailCount:    s.UndeployFailure,
		PolicyExecutedCount:        success + fail,
		PolicyExecutedSuccessCount: success,
		PolicyExecutedFailCount:    fail,
	}
}
