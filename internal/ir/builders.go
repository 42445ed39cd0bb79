package ir

import (
	"strings"
	"time"

	"github.com/kyrodb/kyroql/internal/embedding"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/policy"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
)

// AssertBuilder builds a validated Assert operation.
type AssertBuilder struct {
	p AssertPayload
}

func NewAssertBuilder(entityID ids.EntityId, predicate string, v value.Value, confidenceValue float64, source timesrc.Source) *AssertBuilder {
	return &AssertBuilder{p: AssertPayload{
		EntityID:        entityID,
		Predicate:       predicate,
		Value:           v,
		ConfidenceValue: confidenceValue,
		Source:          source,
		ConsistencyMode: "eventual",
	}}
}

func (b *AssertBuilder) WithValidTime(vt timesrc.TimeRange) *AssertBuilder {
	b.p.ValidTime = &vt
	return b
}

func (b *AssertBuilder) WithEmbedding(v []float32) *AssertBuilder {
	b.p.Embedding = v
	return b
}

func (b *AssertBuilder) WithConsistencyMode(mode string) *AssertBuilder {
	b.p.ConsistencyMode = mode
	return b
}

func (b *AssertBuilder) Build() (Operation, error) {
	if err := b.p.Validate(); err != nil {
		return Operation{}, err
	}
	return Assert(b.p), nil
}

// ResolveBuilder builds a validated Resolve operation. Defaults: limit=10,
// mode=simple, include_gaps=true, include_counter_evidence=false,
// conflict_policy=highest_confidence (spec.md §4.2).
type ResolveBuilder struct {
	p ResolvePayload
}

func NewResolveBuilder() *ResolveBuilder {
	return &ResolveBuilder{p: ResolvePayload{
		Limit:          10,
		Mode:           ModeSimple,
		IncludeGaps:    true,
		ConflictPolicy: policy.Default(),
	}}
}

func (b *ResolveBuilder) WithQuery(q string) *ResolveBuilder {
	b.p.Query = &q
	return b
}

func (b *ResolveBuilder) WithQueryEmbedding(v []float32) *ResolveBuilder {
	b.p.QueryEmbedding = v
	return b
}

func (b *ResolveBuilder) WithEntityID(id ids.EntityId) *ResolveBuilder {
	b.p.EntityID = &id
	return b
}

func (b *ResolveBuilder) WithPredicate(pred string) *ResolveBuilder {
	b.p.Predicate = &pred
	return b
}

func (b *ResolveBuilder) WithMinConfidence(v float64) *ResolveBuilder {
	b.p.MinConfidence = &v
	return b
}

func (b *ResolveBuilder) WithAsOf(t time.Time) *ResolveBuilder {
	b.p.AsOf = &t
	return b
}

func (b *ResolveBuilder) WithLimit(n int) *ResolveBuilder {
	b.p.Limit = n
	return b
}

func (b *ResolveBuilder) WithMode(m ResolveMode) *ResolveBuilder {
	b.p.Mode = m
	return b
}

func (b *ResolveBuilder) WithIncludeGaps(v bool) *ResolveBuilder {
	b.p.IncludeGaps = v
	return b
}

func (b *ResolveBuilder) WithIncludeCounterEvidence(v bool) *ResolveBuilder {
	b.p.IncludeCounterEvidence = v
	return b
}

func (b *ResolveBuilder) WithConflictPolicy(pol policy.Policy) *ResolveBuilder {
	b.p.ConflictPolicy = pol
	return b
}

// Build validates and returns the Resolve operation. When a non-empty query
// is present and no explicit embedding was supplied, a deterministic
// lexical embedding is synthesized so downstream ranking always has a
// vector to work with.
func (b *ResolveBuilder) Build() (Operation, error) {
	if b.p.Query != nil && strings.TrimSpace(*b.p.Query) != "" && len(b.p.QueryEmbedding) == 0 {
		b.p.QueryEmbedding = embedding.Lexical(*b.p.Query)
	}
	if err := b.p.Validate(); err != nil {
		return Operation{}, err
	}
	return Resolve(b.p), nil
}

// RetractBuilder builds a validated Retract operation.
type RetractBuilder struct {
	p RetractPayload
}

func NewRetractBuilder(beliefID ids.BeliefId) *RetractBuilder {
	return &RetractBuilder{p: RetractPayload{BeliefID: beliefID}}
}

func (b *RetractBuilder) WithReason(reason string) *RetractBuilder {
	b.p.Reason = &reason
	return b
}

func (b *RetractBuilder) Build() (Operation, error) {
	if err := b.p.Validate(); err != nil {
		return Operation{}, err
	}
	return Retract(b.p), nil
}

// DeriveBuilder builds a validated Derive operation.
type DeriveBuilder struct {
	p DerivePayload
}

func NewDeriveBuilder(premiseIDs []ids.BeliefId, rule string) *DeriveBuilder {
	return &DeriveBuilder{p: DerivePayload{PremiseIDs: premiseIDs, Rule: rule}}
}

func (b *DeriveBuilder) WithDerivedBeliefID(id ids.BeliefId) *DeriveBuilder {
	b.p.DerivedBeliefID = &id
	return b
}

func (b *DeriveBuilder) WithInferenceSteps(steps []string) *DeriveBuilder {
	b.p.InferenceSteps = steps
	return b
}

func (b *DeriveBuilder) WithConfidence(v float64) *DeriveBuilder {
	b.p.Confidence = &v
	return b
}

func (b *DeriveBuilder) WithJustification(j string) *DeriveBuilder {
	b.p.Justification = &j
	return b
}

func (b *DeriveBuilder) WithMetadata(m map[string]any) *DeriveBuilder {
	b.p.Metadata = m
	return b
}

func (b *DeriveBuilder) Build() (Operation, error) {
	if err := b.p.Validate(); err != nil {
		return Operation{}, err
	}
	return Derive(b.p), nil
}
