package monitor

import "github.com/kyrodb/kyroql/internal/ir"

// Matches reports whether observation satisfies trigger: a confidence_shift
// trigger fires when its optional entity/predicate filters match (or are
// absent) and the observation's confidence delta meets or exceeds
// Threshold; a pattern_violation trigger fires when the observation names
// the same pattern ID.
func Matches(t ir.Trigger, o Observation) bool {
	switch t.Kind {
	case ir.TriggerConfidenceShift:
		if t.EntityID != nil && *t.EntityID != o.EntityID {
			return false
		}
		if t.Predicate != nil && *t.Predicate != o.Predicate {
			return false
		}
		return o.ConfidenceDelta() >= t.Threshold
	case ir.TriggerPatternViolation:
		if o.PatternID == nil || t.PatternID == nil {
			return false
		}
		return *o.PatternID == *t.PatternID
	default:
		return false
	}
}
