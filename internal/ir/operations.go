// Package ir implements KyroQL's operation intermediate representation: a
// closed sum type over ASSERT, RESOLVE, RETRACT, DEFINE_PATTERN, SIMULATE,
// MONITOR, and DERIVE, each with its own validated payload (spec.md §4.2).
//
// Operations serialize as tagged JSON objects ({"type": "assert", ...}) per
// spec.md §6; round-tripping through Marshal/Unmarshal is a stability
// contract (spec property #3), exercised in ir_test.go.
package ir

import (
	"time"

	"github.com/kyrodb/kyroql/internal/derivation"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/policy"
	"github.com/kyrodb/kyroql/internal/simulation"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
)

// OpType discriminates the Operation variants.
type OpType string

const (
	OpAssert        OpType = "assert"
	OpResolve       OpType = "resolve"
	OpRetract       OpType = "retract"
	OpDefinePattern OpType = "define_pattern"
	OpSimulate      OpType = "simulate"
	OpMonitor       OpType = "monitor"
	OpDerive        OpType = "derive"
)

// ResolveMode selects how much detail RESOLVE returns alongside winning beliefs.
type ResolveMode string

const (
	ModeSimple             ResolveMode = "simple"
	ModeWithDerivationChain ResolveMode = "with_derivation_chain"
)

// AssertPayload creates a new belief.
type AssertPayload struct {
	EntityID        ids.EntityId          `json:"entity_id"`
	Predicate       string                `json:"predicate"`
	Value           value.Value           `json:"value"`
	ConfidenceValue float64               `json:"confidence_value"`
	ConfidenceCalib string                `json:"confidence_calibration,omitempty"`
	Source          timesrc.Source        `json:"source"`
	ValidTime       *timesrc.TimeRange    `json:"valid_time,omitempty"`
	Embedding       []float32             `json:"embedding,omitempty"`
	ConsistencyMode string                `json:"consistency_mode,omitempty"`
}

// ResolvePayload queries beliefs matching a filter.
type ResolvePayload struct {
	Query                  *string        `json:"query,omitempty"`
	QueryEmbedding         []float32      `json:"query_embedding,omitempty"`
	EntityID               *ids.EntityId  `json:"entity_id,omitempty"`
	Predicate              *string        `json:"predicate,omitempty"`
	MinConfidence          *float64       `json:"min_confidence,omitempty"`
	AsOf                   *time.Time     `json:"as_of,omitempty"`
	Limit                  int            `json:"limit"`
	Mode                   ResolveMode    `json:"mode"`
	IncludeGaps            bool           `json:"include_gaps"`
	IncludeCounterEvidence bool           `json:"include_counter_evidence"`
	ConflictPolicy         policy.Policy  `json:"conflict_policy"`
}

// RetractPayload writes a retraction record; the original belief stays in
// the log for audit.
type RetractPayload struct {
	BeliefID ids.BeliefId `json:"belief_id"`
	Reason   *string      `json:"reason,omitempty"`
}

// DefinePatternPayload stores a named pattern rule, verbatim, for the
// out-of-scope pattern-matching rule engine collaborator.
type DefinePatternPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rule        string `json:"rule"`
}

// SimulatePayload bounds a simulation run handed to the out-of-scope
// simulation sandbox collaborator.
type SimulatePayload struct {
	Description string                   `json:"description,omitempty"`
	Constraints simulation.Constraints   `json:"constraints"`
}

// ThresholdSpec is the alternate, compact way of specifying a registration's
// triggers: a single confidence threshold expanded into the cartesian
// product of ConfidenceShift triggers across optional entity and predicate
// filters (spec.md §4.5 "Threshold translation"). Mutually exclusive with
// MonitorPayload.Triggers.
type ThresholdSpec struct {
	EntityIDs  []ids.EntityId `json:"entity_ids,omitempty"`
	Predicates []string       `json:"predicates,omitempty"`
	Threshold  float64        `json:"threshold"`
}

// MonitorPayload registers a subscription: a set of triggers (explicit or
// expanded from ThresholdSpec) plus optional expiry.
type MonitorPayload struct {
	Triggers      []Trigger      `json:"triggers,omitempty"`
	ThresholdSpec *ThresholdSpec `json:"threshold_spec,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
}

// DerivePayload records a derivation linking a derived belief to its premises.
type DerivePayload struct {
	DerivedBeliefID *ids.BeliefId  `json:"derived_belief_id,omitempty"`
	PremiseIDs      []ids.BeliefId `json:"premise_ids"`
	Rule            string         `json:"rule"`
	InferenceSteps  []string       `json:"inference_steps,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	Justification   *string        `json:"justification,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ToRecord converts a validated DerivePayload into a derivation.Record,
// stamping tx_time at commit.
func (p DerivePayload) ToRecord(txTime time.Time) (derivation.Record, error) {
	return derivation.New(txTime, p.DerivedBeliefID, p.PremiseIDs, p.Rule, p.InferenceSteps, p.Confidence, p.Justification, p.Metadata)
}

// Operation is the closed sum over all IR operations. Exactly one of the
// payload fields is set, matching Type.
type Operation struct {
	Type          OpType
	Assert        *AssertPayload
	Resolve       *ResolvePayload
	Retract       *RetractPayload
	DefinePattern *DefinePatternPayload
	Simulate      *SimulatePayload
	Monitor       *MonitorPayload
	Derive        *DerivePayload
}

func Assert(p AssertPayload) Operation        { return Operation{Type: OpAssert, Assert: &p} }
func Resolve(p ResolvePayload) Operation      { return Operation{Type: OpResolve, Resolve: &p} }
func Retract(p RetractPayload) Operation      { return Operation{Type: OpRetract, Retract: &p} }
func DefinePattern(p DefinePatternPayload) Operation {
	return Operation{Type: OpDefinePattern, DefinePattern: &p}
}
func Simulate(p SimulatePayload) Operation { return Operation{Type: OpSimulate, Simulate: &p} }
func Monitor(p MonitorPayload) Operation   { return Operation{Type: OpMonitor, Monitor: &p} }
func Derive(p DerivePayload) Operation     { return Operation{Type: OpDerive, Derive: &p} }
