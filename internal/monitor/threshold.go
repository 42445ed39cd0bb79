package monitor

import (
	"fmt"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
)

// MaxExpandedTriggers caps the cartesian product a ThresholdSpec can expand
// into (spec.md §4.5): entity_ids × predicates, each combination becoming
// its own confidence_shift trigger.
const MaxExpandedTriggers = 4096

// ExpandThresholdSpec turns the compact ThresholdSpec shape into the
// explicit list of confidence_shift triggers it denotes: the cartesian
// product of its entity filters and predicate filters (an absent list on
// either axis means "any", represented as a single nil filter slot).
func ExpandThresholdSpec(spec *ir.ThresholdSpec) ([]ir.Trigger, error) {
	if spec == nil {
		return nil, nil
	}

	entityFilters := []*ids.EntityId{nil}
	if len(spec.EntityIDs) > 0 {
		entityFilters = entityFilters[:0]
		for i := range spec.EntityIDs {
			e := spec.EntityIDs[i]
			entityFilters = append(entityFilters, &e)
		}
	}

	predicateFilters := []*string{nil}
	if len(spec.Predicates) > 0 {
		predicateFilters = predicateFilters[:0]
		for i := range spec.Predicates {
			p := spec.Predicates[i]
			predicateFilters = append(predicateFilters, &p)
		}
	}

	total := len(entityFilters) * len(predicateFilters)
	if total > MaxExpandedTriggers {
		return nil, fmt.Errorf("monitor: threshold_spec expands to %d triggers, exceeds max %d", total, MaxExpandedTriggers)
	}

	triggers := make([]ir.Trigger, 0, total)
	for _, e := range entityFilters {
		for _, p := range predicateFilters {
			triggers = append(triggers, ir.NewConfidenceShiftTrigger(e, p, spec.Threshold))
		}
	}
	return triggers, nil
}
