// Package timesrc models belief valid-time ranges and provenance sources
// (distinct from confidence provenance, which lives in internal/confidence).
package timesrc

import (
	"time"

	"github.com/kyrodb/kyroql/internal/kerrors"
)

// farFuture is the open-ended sentinel used by FromNow. It is deliberately
// a concrete instant (rather than a nullable "to"), per DESIGN.md's
// resolution of the Open Question around open-ended validity: the wire
// format carries one TimeRange shape, no nullable variant to reconcile
// across serialization.
var farFuture = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// TimeRange is the real-world interval during which a belief is asserted
// to hold. Invariant: From <= To.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewTimeRange validates and constructs a TimeRange.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	if from.After(to) {
		return TimeRange{}, kerrors.InvalidTimeRange()
	}
	return TimeRange{From: from, To: to}, nil
}

// FromNow returns an open-ended range: currently holds, no known end.
func FromNow(now time.Time) TimeRange {
	return TimeRange{From: now, To: farFuture}
}

// IsOpenEnded reports whether r represents "no known end".
func (r TimeRange) IsOpenEnded() bool {
	return r.To.Equal(farFuture)
}

// Contains reports whether t falls within [From, To] inclusive.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
