package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pdpnode/internal/application"
	"pdpnode/internal/lifecycle/models"
	"pdpnode/internal/tosca"
)

// Publisher sends status messages to the coordinator.
type Publisher interface {
	Publish(ctx context.Context, status models.Status) error
}

// Deployer changes the loaded policy set.
type Deployer interface {
	Deploy(ctx context.Context, doc *tosca.Policy) (*application.Application, error)
	Undeploy(ctx context.Context, id tosca.ConceptIdentifier) (*application.Application, error)
}

// DeployStats counts deployments.
type DeployStats interface {
	RecordDeploy(ok bool)
	RecordUndeploy(ok bool)
}

// IntervalSetter receives heartbeat interval changes.
type IntervalSetter interface {
	SetInterval(d time.Duration)
}

// MessageMetrics observes handled control messages.
type MessageMetrics interface {
	IncrementControlMessage(message, result string)
	SetState(state string)
}

// Listener applies control messages to the node and publishes the
// acknowledgements. Messages must be handled one at a time.
type Listener struct {
	sm        *StateMachine
	deployer  Deployer
	stats     DeployStats
	publisher Publisher
	heartbeat IntervalSetter
	metrics   MessageMetrics
	logger    *slog.Logger
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// WithHeartbeat lets PDP_UPDATE messages change the heartbeat interval.
func WithHeartbeat(h IntervalSetter) ListenerOption {
	return func(l *Listener) {
		l.heartbeat = h
	}
}

func WithMessageMetrics(m MessageMetrics) ListenerOption {
	return func(l *Listener) {
		l.metrics = m
	}
}

func NewListener(sm *StateMachine, deployer Deployer, stats DeployStats, publisher Publisher, opts ...ListenerOption) *Listener {
	l := &Listener{
		sm:        sm,
		deployer:  deployer,
		stats:     stats,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HandleMessage decodes and applies one raw control message. Malformed
// messages are reported and skipped by the caller; they never stop the loop.
func (l *Listener) HandleMessage(ctx context.Context, data []byte) error {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode control message: %w", err)
	}

	var (
		applied bool
		err     error
	)
	switch env.MessageName {
	case models.MessageUpdate:
		var msg models.Update
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.MessageName, err)
		}
		applied, err = l.handleUpdate(ctx, msg)
	case models.MessageStateChange:
		var msg models.StateChange
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.MessageName, err)
		}
		applied, err = l.handleStateChange(ctx, msg)
	case models.MessageStatus:
		// status messages share the topic
		return nil
	default:
		l.logger.DebugContext(ctx, "control message ignored", "message", env.MessageName)
		return nil
	}
	l.observe(env.MessageName, applied, err)
	return err
}

func (l *Listener) observe(message models.MessageType, applied bool, err error) {
	if l.metrics == nil {
		return
	}
	result := "dropped"
	switch {
	case err != nil:
		result = "failed"
	case applied:
		result = "applied"
	}
	l.metrics.IncrementControlMessage(string(message), result)
	l.metrics.SetState(string(l.sm.State()))
}

func (l *Listener) handleStateChange(ctx context.Context, msg models.StateChange) (bool, error) {
	ack, ok := l.sm.ApplyStateChange(ctx, msg)
	if !ok {
		return false, nil
	}
	return true, l.publish(ctx, ack)
}

func (l *Listener) handleUpdate(ctx context.Context, msg models.Update) (bool, error) {
	if l.sm.Terminated() {
		l.logger.WarnContext(ctx, "control message on terminated node is unsupported",
			"request_id", msg.RequestID,
			"message", msg.MessageName,
		)
		return false, nil
	}
	if !l.sm.ShouldHandle(msg.Message) {
		return false, nil
	}

	var failures []string
	for _, id := range msg.PoliciesToBeUndeployed {
		if _, err := l.deployer.Undeploy(ctx, id); err != nil {
			l.stats.RecordUndeploy(false)
			failures = append(failures, err.Error())
			l.logger.WarnContext(ctx, "undeploy failed", "request_id", msg.RequestID, "policy", id.String(), "error", err)
			continue
		}
		l.stats.RecordUndeploy(true)
	}
	for _, doc := range msg.PoliciesToBeDeployed {
		app, err := l.deployer.Deploy(ctx, doc)
		if err != nil {
			l.stats.RecordDeploy(false)
			failures = append(failures, err.Error())
			l.logger.WarnContext(ctx, "deploy failed", "request_id", msg.RequestID, "policy", policyName(doc), "error", err)
			continue
		}
		l.stats.RecordDeploy(true)
		l.logger.InfoContext(ctx, "policy deployed",
			"request_id", msg.RequestID,
			"policy", doc.Identifier().String(),
			"application", app.Name(),
		)
	}

	if msg.PdpHeartbeatIntervalMs > 0 && l.heartbeat != nil {
		l.heartbeat.SetInterval(time.Duration(msg.PdpHeartbeatIntervalMs) * time.Millisecond)
	}

	ack, ok := l.sm.ApplyUpdate(ctx, msg.Message, strings.Join(failures, "; "))
	if !ok {
		return false, nil
	}
	return true, l.publish(ctx, ack)
}

func (l *Listener) publish(ctx context.Context, status models.Status) error {
	if err := l.publisher.Publish(ctx, status); err != nil {
		return fmt.Errorf("publish %s response: %w", status.MessageName, err)
	}
	return nil
}

func policyName(doc *tosca.Policy) string {
	if doc == nil {
		return ""
	}
	return doc.Identifier().String()
}
