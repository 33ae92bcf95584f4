package native

// Match functions.
const (
	FunctionStringEqual           = "string-equal"
	FunctionStringEqualIgnoreCase = "string-equal-ignore-case"
	FunctionIntegerEqual          = "integer-equal"
)

// Condition functions.
const (
	FunctionAnd                  = "and"
	FunctionOr                   = "or"
	FunctionNot                  = "not"
	FunctionStringIsIn           = "string-is-in"
	FunctionIntegerGreaterThan   = "integer-greater-than"
	FunctionIntegerGreaterEqual  = "integer-greater-than-or-equal"
	FunctionIntegerLessThan      = "integer-less-than"
	FunctionIntegerLessEqual     = "integer-less-than-or-equal"
	FunctionStringBagIsEmpty     = "string-bag-is-empty"
	FunctionAnyOfStringEqualBags = "string-at-least-one-member-of"
)

// Combining algorithms.
const (
	CombineDenyOverrides    = "deny-overrides"
	CombinePermitOverrides  = "permit-overrides"
	CombineFirstApplicable  = "first-applicable"
	CombinePermitUnlessDeny = "permit-unless-deny"
	CombineDenyUnlessPermit = "deny-unless-permit"
)

// Match compares a literal to every value of a designated attribute.
type Match struct {
	Function   string         `json:"function,omitempty"`
	Value      AttributeValue `json:"value"`
	Designator Designator     `json:"designator"`
}

// AllOf holds if every match holds.
type AllOf struct {
	Matches []Match `json:"matches"`
}

// AnyOf holds if at least one AllOf holds.
type AnyOf struct {
	AllOf []AllOf `json:"allOf"`
}

// Target holds if every AnyOf holds. An empty target matches every request.
type Target struct {
	AnyOf []AnyOf `json:"anyOf,omitempty"`
}

// Empty reports whether the target matches unconditionally.
func (t *Target) Empty() bool {
	return t == nil || len(t.AnyOf) == 0
}

// Expression is a condition tree. Exactly one of Function, Designator or
// Value is set.
type Expression struct {
	Function   string          `json:"function,omitempty"`
	Args       []Expression    `json:"args,omitempty"`
	Designator *Designator     `json:"designator,omitempty"`
	Value      *AttributeValue `json:"value,omitempty"`
}

// Apply builds a function expression.
func Apply(function string, args ...Expression) Expression {
	return Expression{Function: function, Args: args}
}

// Literal builds a value expression.
func Literal(v AttributeValue) Expression {
	return Expression{Value: &v}
}

// Ref builds a designator expression.
func Ref(d Designator) Expression {
	return Expression{Designator: &d}
}

// AttributeAssignment is one entry of an obligation or advice.
type AttributeAssignment struct {
	ID       string         `json:"attributeId"`
	Category string         `json:"category,omitempty"`
	Value    AttributeValue `json:"value"`
}

// Obligation must be honoured by the caller when the decision matches.
type Obligation struct {
	ID         string                `json:"id"`
	Attributes []AttributeAssignment `json:"attributes,omitempty"`
}

// Get returns the first assignment value with the given id.
func (o Obligation) Get(id string) (string, bool) {
	for _, a := range o.Attributes {
		if a.ID == id {
			return a.Value.Value, true
		}
	}
	return "", false
}

// Advice is an optional hint returned with the decision.
type Advice struct {
	ID         string                `json:"id"`
	Attributes []AttributeAssignment `json:"attributes,omitempty"`
}

// Rule yields its effect when its target and condition hold.
type Rule struct {
	ID          string       `json:"id"`
	Description string       `json:"description,omitempty"`
	Effect      Effect       `json:"effect"`
	Target      *Target      `json:"target,omitempty"`
	Condition   *Expression  `json:"condition,omitempty"`
	Obligations []Obligation `json:"obligations,omitempty"`
	Advice      []Advice     `json:"advice,omitempty"`
}

// Policy is the unit the engine evaluates.
type Policy struct {
	ID            string `json:"id"`
	Version       string `json:"version"`
	Description   string `json:"description,omitempty"`
	Target        Target `json:"target"`
	RuleCombining string `json:"ruleCombining,omitempty"`
	Rules         []Rule `json:"rules"`
}
