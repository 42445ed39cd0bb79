// Package belief defines the Entity and Belief domain types — the subject
// and the statement-with-provenance that form KyroQL's core record
// (spec.md §3).
package belief

import (
	"strings"
	"time"

	"github.com/kyrodb/kyroql/internal/confidence"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/kerrors"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
)

// ConsistencyMode controls how strictly a belief's writes are ordered
// relative to concurrent readers of the same entity/predicate.
type ConsistencyMode string

const (
	ConsistencyStrict   ConsistencyMode = "strict"
	ConsistencyEventual ConsistencyMode = "eventual"
)

// Entity is an opaque identifier. KyroQL treats entities as names only;
// every attribute is expressed as a Belief about the entity.
type Entity struct {
	ID ids.EntityId `json:"id"`
}

// Belief is a statement (entity, predicate, value) with confidence,
// provenance, and a validity window. Beliefs are created by ASSERT and
// never edited in place.
type Belief struct {
	ID              ids.BeliefId           `json:"id"`
	EntityID        ids.EntityId           `json:"entity_id"`
	Predicate       string                 `json:"predicate"`
	Value           value.Value            `json:"value"`
	Confidence      confidence.Confidence  `json:"confidence"`
	Source          timesrc.Source         `json:"source"`
	ValidTime       timesrc.TimeRange      `json:"valid_time"`
	TxTime          time.Time              `json:"tx_time"`
	Embedding       []float32              `json:"embedding,omitempty"`
	ConsistencyMode ConsistencyMode        `json:"consistency_mode"`
	Retracted       bool                   `json:"retracted"`
}

// New validates and constructs a Belief. TxTime is assigned by the caller
// (the store assigns it monotonically at commit — see internal/storage/persistent).
func New(
	entityID ids.EntityId,
	predicate string,
	v value.Value,
	conf confidence.Confidence,
	source timesrc.Source,
	validTime timesrc.TimeRange,
	txTime time.Time,
	embedding []float32,
	mode ConsistencyMode,
) (Belief, error) {
	trimmed := strings.TrimSpace(predicate)
	if trimmed == "" {
		return Belief{}, kerrors.EmptyPredicate()
	}
	if conf.Value < 0 || conf.Value > 1 {
		return Belief{}, kerrors.ConfidenceOutOfRange(conf.Value)
	}
	if embedding != nil && !value.ValidEmbeddingLength(len(embedding)) {
		return Belief{}, kerrors.InvalidEmbeddingDimension(len(embedding), -1)
	}
	if validTime.From.After(validTime.To) {
		return Belief{}, kerrors.InvalidTimeRange()
	}
	if mode == "" {
		mode = ConsistencyEventual
	}

	return Belief{
		ID:              ids.NewBeliefId(),
		EntityID:        entityID,
		Predicate:       trimmed,
		Value:           v,
		Confidence:      conf,
		Source:          source,
		ValidTime:       validTime,
		TxTime:          txTime,
		Embedding:       embedding,
		ConsistencyMode: mode,
	}, nil
}

// Pattern is a stored rule definition consulted by the (out-of-scope)
// pattern-matching rule engine for pattern_violation triggers.
type Pattern struct {
	ID          ids.PatternId `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Rule        string        `json:"rule"`
}
