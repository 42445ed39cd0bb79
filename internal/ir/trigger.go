package ir

import "github.com/kyrodb/kyroql/internal/ids"

// TriggerKind discriminates the Trigger variants a Subscription can register.
type TriggerKind string

const (
	TriggerConfidenceShift  TriggerKind = "confidence_shift"
	TriggerPatternViolation TriggerKind = "pattern_violation"
)

// Trigger is the closed tagged union of monitor trigger specifications.
// ConfidenceShift optionally filters by entity and/or predicate; when both
// are nil it matches any observation whose confidence delta crosses Threshold.
type Trigger struct {
	Kind       TriggerKind   `json:"type"`
	EntityID   *ids.EntityId `json:"entity_id,omitempty"`
	Predicate  *string       `json:"predicate,omitempty"`
	Threshold  float64       `json:"threshold,omitempty"`
	PatternID  *ids.PatternId `json:"pattern_id,omitempty"`
}

func NewConfidenceShiftTrigger(entityID *ids.EntityId, predicate *string, threshold float64) Trigger {
	return Trigger{Kind: TriggerConfidenceShift, EntityID: entityID, Predicate: predicate, Threshold: threshold}
}

func NewPatternViolationTrigger(patternID ids.PatternId) Trigger {
	return Trigger{Kind: TriggerPatternViolation, PatternID: &patternID}
}
