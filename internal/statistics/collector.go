// Package statistics counts policy deployments and decisions for status
// reporting.
package statistics

import (
	"sort"
	"sync"
	"sync/atomic"

	"pdpnode/internal/native"
)

// Outcome is the statistics bucket of one decision result.
type Outcome int

const (
	OutcomePermit Outcome = iota
	OutcomeDeny
	OutcomeIndeterminate
	OutcomeNotApplicable
)

// Classify maps a decision onto its bucket. Every indeterminate variant
// counts as indeterminate.
func Classify(d native.Decision) Outcome {
	switch {
	case d == native.Permit:
		return OutcomePermit
	case d == native.Deny:
		return OutcomeDeny
	case d.IsIndeterminate():
		return OutcomeIndeterminate
	default:
		return OutcomeNotApplicable
	}
}

type outcomeCounters struct {
	permit        atomic.Int64
	deny          atomic.Int64
	indeterminate atomic.Int64
	notApplicable atomic.Int64
}

func (c *outcomeCounters) add(o Outcome) {
	switch o {
	case OutcomePermit:
		c.permit.Add(1)
	case OutcomeDeny:
		c.deny.Add(1)
	case OutcomeIndeterminate:
		c.indeterminate.Add(1)
	default:
		c.notApplicable.Add(1)
	}
}

// Collector holds monotonic counters. It is safe for concurrent use and
// never takes a lock on the decision path once an application is known.
type Collector struct {
	policyTypes atomic.Int64
	policies    atomic.Int64
	errors      atomic.Int64

	decisions outcomeCounters

	deploySuccess   atomic.Int64
	deployFailure   atomic.Int64
	undeploySuccess atomic.Int64
	undeployFailure atomic.Int64

	perApplication sync.Map // map[string]*outcomeCounters
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) application(name string) *outcomeCounters {
	if v, ok := c.perApplication.Load(name); ok {
		return v.(*outcomeCounters)
	}
	v, _ := c.perApplication.LoadOrStore(name, &outcomeCounters{})
	return v.(*outcomeCounters)
}

// SetPolicyTypes records the number of supported policy types.
func (c *Collector) SetPolicyTypes(n int64) {
	c.policyTypes.Store(n)
}

// RecordDecision counts one result for application.
func (c *Collector) RecordDecision(application string, d native.Decision) {
	o := Classify(d)
	c.decisions.add(o)
	c.application(application).add(o)
}

// RecordResponse counts every result of resp. A nil response counts as one
// error.
func (c *Collector) RecordResponse(application string, resp *native.Response) {
	if resp == nil {
		c.RecordError()
		return
	}
	for _, r := range resp.Results {
		c.RecordDecision(application, r.Decision)
	}
}

func (c *Collector) RecordError() {
	c.errors.Add(1)
}

// RecordDeploy counts a deployment; a success also increments the policy
// count.
func (c *Collector) RecordDeploy(ok bool) {
	if ok {
		c.deploySuccess.Add(1)
		c.policies.Add(1)
		return
	}
	c.deployFailure.Add(1)
}

func (c *Collector) RecordUndeploy(ok bool) {
	if ok {
		c.undeploySuccess.Add(1)
		return
	}
	c.undeployFailure.Add(1)
}

// ApplicationStats are the outcome counters of one application.
type ApplicationStats struct {
	Permit        int64 `json:"permit_decisions_count"`
	Deny          int64 `json:"deny_decisions_count"`
	Indeterminate int64 `json:"indeterminant_decisions_count"`
	NotApplicable int64 `json:"not_applicable_decisions_count"`
}

// Snapshot is a point-in-time copy of the counters. Individual counters
// are read atomically; the snapshot as a whole is not.
type Snapshot struct {
	TotalPolicyTypes int64                       `json:"totalPolicyTypesCount"`
	TotalPolicies    int64                       `json:"totalPoliciesCount"`
	TotalErrors      int64                       `json:"totalErrorCount"`
	Permit           int64                       `json:"permitDecisionsCount"`
	Deny             int64                       `json:"denyDecisionsCount"`
	Indeterminate    int64                       `json:"indeterminantDecisionsCount"`
	NotApplicable    int64                       `json:"notApplicableDecisionsCount"`
	DeploySuccess    int64                       `json:"deploySuccessCount"`
	DeployFailure    int64                       `json:"deployFailureCount"`
	UndeploySuccess  int64                       `json:"undeploySuccessCount"`
	UndeployFailure  int64                       `json:"undeployFailureCount"`
	Applications     map[string]ApplicationStats `json:"applicationMetrics,omitempty"`
}

// Decisions is the sum of the outcome and error counters.
func (s Snapshot) Decisions() int64 {
	return s.Permit + s.Deny + s.Indeterminate + s.NotApplicable + s.TotalErrors
}

// ApplicationNames returns the applications with counters, sorted.
func (s Snapshot) ApplicationNames() []string {
	names := make([]string, 0, len(s.Applications))
	for n := range s.Applications {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		TotalPolicyTypes: c.policyTypes.Load(),
		TotalPolicies:    c.policies.Load(),
		TotalErrors:      c.errors.Load(),
		Permit:           c.decisions.permit.Load(),
		Deny:             c.decisions.deny.Load(),
		Indeterminate:    c.decisions.indeterminate.Load(),
		NotApplicable:    c.decisions.notApplicable.Load(),
		DeploySuccess:    c.deploySuccess.Load(),
		DeployFailure:    c.deployFailure.Load(),
		UndeploySuccess:  c.undeploySuccess.Load(),
		UndeployFailure:  c.undeployFailure.Load(),
		Applications:     map[string]ApplicationStats{},
	}
	c.perApplication.Range(func(k, v any) bool {
		oc := v.(*outcomeCounters)
		s.Applications[k.(string)] = ApplicationStats{
			Permit:        oc.permit.Load(),
			Deny:          oc.deny.Load(),
			Indeterminate: oc.indeterminate.Load(),
			NotApplicable: oc.notApplicable.Load(),
		}
		return true
	})
	return s
}
