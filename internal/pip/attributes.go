package pip

import "pdpnode/internal/native"

// GuardIssuerPrefix is the namespace reserved for guard attribute providers.
// Lookups with any other issuer are never answered.
const GuardIssuerPrefix = "urn:org:onap:xacml:guard:"

// Guard attribute ids.
const (
	AttributeActorID          = "urn:org:onap:guard:actor:actor-id"
	AttributeOperationID      = "urn:org:onap:guard:operation:operation-id"
	AttributeTargetID         = "urn:org:onap:guard:target:target-id"
	AttributeRequestID        = "urn:org:onap:guard:request:request-id"
	AttributeClosedLoopName   = "urn:org:onap:guard:clname:clname-id"
	AttributeVfCount          = "urn:org:onap:guard:target:vf-count"
	AttributeOperationCount   = "urn:org:onap:guard:operation:operation-count"
	AttributeOperationOutcome = "urn:org:onap:guard:operation:operation-outcome"
)

// Normalized operation outcomes.
const (
	OutcomeInProgress = "In_Progress"
	OutcomeComplete   = "Complete"
)

// FailureCount is the operation count reported when the history cannot be
// queried. Policies compare against it like any other count.
const FailureCount int64 = -1

// GuardDesignator references a guard attribute in the resource category.
func GuardDesignator(attributeID, dataType string) native.Designator {
	return native.Designator{
		Category:    native.CategoryResource,
		AttributeID: attributeID,
		DataType:    dataType,
	}
}

// CountIssuer builds the issuer selecting a counting window.
func CountIssuer(window int, unit string) string {
	return GuardIssuerPrefix + "tw:" + itoa(window) + ":" + unit
}

// OutcomeIssuer builds the issuer selecting a closed loop.
func OutcomeIssuer(closedLoopName string) string {
	return GuardIssuerPrefix + "clname:" + closedLoopName
}
