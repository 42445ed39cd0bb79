// Package simulation defines validated resource limits consulted as a
// ceiling by the (out-of-scope) simulation sandbox collaborator (spec.md §3, §4.2).
package simulation

import "github.com/kyrodb/kyroql/internal/kerrors"

// Defaults recovered from the original implementation's simulation module,
// used when a caller omits explicit constraints.
const (
	DefaultMaxAffectedEntities = 1000
	DefaultMaxDepth            = 2
	DefaultMaxDurationMS       = 500
)

// Constraints bounds a simulation run. All three fields must be strictly
// positive.
type Constraints struct {
	MaxAffectedEntities int
	MaxDepth             int
	MaxDurationMS        int64
}

// Default returns the constraints used when a SIMULATE operation omits them.
func Default() Constraints {
	return Constraints{
		MaxAffectedEntities: DefaultMaxAffectedEntities,
		MaxDepth:            DefaultMaxDepth,
		MaxDurationMS:       DefaultMaxDurationMS,
	}
}

// New validates and constructs Constraints.
func New(maxAffectedEntities, maxDepth int, maxDurationMS int64) (Constraints, error) {
	c := Constraints{MaxAffectedEntities: maxAffectedEntities, MaxDepth: maxDepth, MaxDurationMS: maxDurationMS}
	if err := c.Validate(); err != nil {
		return Constraints{}, err
	}
	return c, nil
}

// Validate enforces that every bound is strictly positive.
func (c Constraints) Validate() error {
	if c.MaxAffectedEntities <= 0 {
		return kerrors.InvalidSimulationConstraints("max_affected_entities must be positive")
	}
	if c.MaxDepth <= 0 {
		return kerrors.InvalidSimulationConstraints("max_depth must be positive")
	}
	if c.MaxDurationMS <= 0 {
		return kerrors.InvalidSimulationConstraints("max_duration_ms must be positive")
	}
	return nil
}
