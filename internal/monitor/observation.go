// Package monitor implements KyroQL's trigger dispatch subsystem: a single
// dedicated worker that matches incoming belief observations against live
// subscriptions and fans matching events out to bounded per-subscription
// streams, grounded on internal/server/broker.go's fan-out-with-backpressure
// design (spec.md §4.5).
package monitor

import (
	"time"

	"github.com/kyrodb/kyroql/internal/ids"
)

// Observation is a single fact fed into the dispatcher: either a belief's
// confidence changing (assert or retract) or a stored pattern being
// evaluated and found violated.
type Observation struct {
	EntityID           ids.EntityId
	Predicate          string
	PreviousConfidence *float64
	NewConfidence      *float64
	PatternID          *ids.PatternId
	Timestamp          time.Time
}

// ConfidenceDelta returns the absolute change in confidence this
// observation represents, or 0 if either endpoint is absent (e.g. a brand
// new belief with no prior confidence to compare against).
func (o Observation) ConfidenceDelta() float64 {
	if o.PreviousConfidence == nil || o.NewConfidence == nil {
		return 0
	}
	d := *o.NewConfidence - *o.PreviousConfidence
	if d < 0 {
		return -d
	}
	return d
}
