package application

import (
	"errors"
	"fmt"

	"pdpnode/internal/tosca"
)

var (
	ErrAlreadyInitialized = errors.New("application already initialized")
	ErrDuplicate          = errors.New("application already registered")
)

// RoutingError reports that no application serves a request.
type RoutingError struct {
	Action string
}

func (e *RoutingError) Error() string {
	if e.Action == "" {
		return "no application for an empty action"
	}
	return fmt.Sprintf("no application for action %s", e.Action)
}

// UnsupportedTypeError reports a policy no application can load.
type UnsupportedTypeError struct {
	Type tosca.PolicyTypeIdentifier
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("policy type %s is not supported", e.Type)
}

// NotDeployedError reports an undeploy of a policy that is not loaded.
type NotDeployedError struct {
	Policy tosca.ConceptIdentifier
}

func (e *NotDeployedError) Error() string {
	return fmt.Sprintf("policy %s is not deployed", e.Policy)
}
