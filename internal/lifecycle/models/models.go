// Package models holds the control messages exchanged with the coordinator.
package models

import (
	"pdpnode/internal/tosca"
)

// MessageType is the messageName discriminator of a control message.
type MessageType string

const (
	MessageStatus      MessageType = "PDP_STATUS"
	MessageUpdate      MessageType = "PDP_UPDATE"
	MessageStateChange MessageType = "PDP_STATE_CHANGE"
	MessageHealthCheck MessageType = "PDP_HEALTH_CHECK"
	MessageTopicCheck  MessageType = "PDP_TOPIC_CHECK"
)

// State is the operational state of a node.
type State string

const (
	StatePassive    State = "PASSIVE"
	StateSafe       State = "SAFE"
	StateTest       State = "TEST"
	StateActive     State = "ACTIVE"
	StateTerminated State = "TERMINATED"
)

// HealthStatus is the health reported in status messages.
type HealthStatus string

const (
	Healthy        HealthStatus = "HEALTHY"
	NotHealthy     HealthStatus = "NOT_HEALTHY"
	TestInProgress HealthStatus = "TEST_IN_PROGRESS"
	HealthUnknown  HealthStatus = "UNKNOWN"
)

// ResponseStatus is the outcome of handling a control message.
type ResponseStatus string

const (
	ResponseSuccess ResponseStatus = "SUCCESS"
	ResponseFail    ResponseStatus = "FAIL"
)

// Envelope is decoded first to dispatch on the message name.
type Envelope struct {
	MessageName MessageType `json:"messageName"`
}

// Message is the addressing header shared by every control message. A
// message with a name targets one node; otherwise it is broadcast to a group
// and, optionally, a subgroup.
type Message struct {
	MessageName MessageType `json:"messageName"`
	RequestID   string      `json:"requestId"`
	TimestampMs int64       `json:"timestampMs"`
	Name        string      `json:"name,omitempty"`
	PdpGroup    string      `json:"pdpGroup,omitempty"`
	PdpSubgroup string      `json:"pdpSubgroup,omitempty"`
}

// StateChange asks the node to move to State.
type StateChange struct {
	Message
	Source string `json:"source,omitempty"`
	State  State  `json:"state"`
}

// Update assigns a subgroup and changes the deployed policy set.
type Update struct {
	Message
	Source                 string                    `json:"source,omitempty"`
	Description            string                    `json:"description,omitempty"`
	PdpHeartbeatIntervalMs int64                     `json:"pdpHeartbeatIntervalMs,omitempty"`
	PoliciesToBeDeployed   []*tosca.Policy           `json:"policiesToBeDeployed,omitempty"`
	PoliciesToBeUndeployed []tosca.ConceptIdentifier `json:"policiesToBeUndeployed,omitempty"`
}

// ResponseDetails correlates a status with the message it answers.
type ResponseDetails struct {
	ResponseTo      string         `json:"responseTo"`
	ResponseStatus  ResponseStatus `json:"responseStatus"`
	ResponseMessage string         `json:"responseMessage,omitempty"`
}

// Statistics is the counter block carried by status messages.
type Statistics struct {
	PdpInstanceID              string `json:"pdpInstanceId"`
	TimeStamp                  int64  `json:"timeStamp"`
	PdpGroupName               string `json:"pdpGroupName,omitempty"`
	PdpSubGroupName            string `json:"pdpSubGroupName,omitempty"`
	PolicyDeployCount          int64  `json:"policyDeployCount"`
	PolicyDeploySuccessCount   int64  `json:"policyDeploySuccessCount"`
	PolicyDeployFailCount      int64  `json:"policyDeployFailCount"`
	PolicyUndeployCount        int64  `json:"policyUndeployCount"`
	PolicyUndeploySuccessCount int64  `json:"policyUndeploySuccessCount"`
	PolicyUndeployFailCount    int64  `json:"policyUndeployFailCount"`
	PolicyExecutedCount        int64  `json:"policyExecutedCount"`
	PolicyExecutedSuccessCount int64  `json:"policyExecutedSuccessCount"`
	PolicyExecutedFailCount    int64  `json:"policyExecutedFailCount"`
}

// Status is the node snapshot published as heartbeat or acknowledgement.
type Status struct {
	Message
	PdpType     string                    `json:"pdpType"`
	State       State                     `json:"state"`
	Healthy     HealthStatus              `json:"healthy"`
	Description string                    `json:"description,omitempty"`
	Policies    []tosca.ConceptIdentifier `json:"policies"`
	Response    *ResponseDetails          `json:"response,omitempty"`
	Statistics  *Statistics               `json:"statistics,omitempty"`
}
