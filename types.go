package kyroql

import (
	"time"

	"github.com/kyrodb/kyroql/internal/belief"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/monitor"
)

// AssertResult is returned by a committed ASSERT operation.
type AssertResult struct {
	BeliefID ids.BeliefId
}

// Gap marks a stretch of an entity/predicate's valid-time axis with no
// belief covering it — only populated when ResolvePayload.IncludeGaps is set.
type Gap struct {
	EntityID  ids.EntityId
	Predicate string
	From      time.Time
	To        time.Time
}

// ResolveResult carries the winning beliefs for each queried (entity,
// predicate) pair after conflict resolution, plus any requested gap and
// counter-evidence detail.
type ResolveResult struct {
	Matches         []belief.Belief
	CounterEvidence []belief.Belief
	Gaps            []Gap
}

// RetractResult confirms a retraction was recorded; the original belief
// remains in the log.
type RetractResult struct {
	BeliefID ids.BeliefId
}

// DefinePatternResult is returned by a committed DEFINE_PATTERN operation.
type DefinePatternResult struct {
	PatternID ids.PatternId
}

// MonitorResult carries the live subscription created by a MONITOR
// operation. The caller owns the Stream and must Unsubscribe when done.
type MonitorResult struct {
	SubscriptionID ids.SubscriptionId
	Stream         *monitor.Stream
}

// DeriveResult is returned by a committed DERIVE operation.
type DeriveResult struct {
	DerivationID ids.DerivationId
}

// Result is the closed sum over every operation's outcome. Exactly one
// field is set, matching the Operation.Type that produced it — mirroring
// the tagged-variant shape used throughout internal/ir.
type Result struct {
	Assert        *AssertResult
	Resolve       *ResolveResult
	Retract       *RetractResult
	DefinePattern *DefinePatternResult
	Monitor       *MonitorResult
	Derive        *DeriveResult
}
