// Package policy implements conflict-resolution policies: pure,
// deterministic selection strategies over a set of competing beliefs
// (spec.md §4.3).
package policy

import (
	"sort"

	"github.com/kyrodb/kyroql/internal/belief"
	"github.com/kyrodb/kyroql/internal/kerrors"
	"github.com/kyrodb/kyroql/internal/timesrc"
)

// Kind discriminates the ConflictResolutionPolicy variants.
type Kind string

const (
	KindLatestWins        Kind = "latest_wins"
	KindHighestConfidence Kind = "highest_confidence"
	KindSourcePriority    Kind = "source_priority"
	KindExplicitConflict  Kind = "explicit_conflict"
)

// SourcePriorityList is a deduplicated (first-occurrence-wins),
// order-preserving, non-empty list of sources ranked highest-priority first.
type SourcePriorityList struct {
	sources []timesrc.Source
}

// NewSourcePriorityList deduplicates sources (first occurrence wins,
// original order preserved) and rejects an empty result.
func NewSourcePriorityList(sources []timesrc.Source) (SourcePriorityList, error) {
	var deduped []timesrc.Source
	for _, s := range sources {
		dup := false
		for _, existing := range deduped {
			if existing.Equal(s) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, s)
		}
	}
	if len(deduped) == 0 {
		return SourcePriorityList{}, kerrors.InvalidConflictResolutionPolicy("source_priority list must not be empty")
	}
	return SourcePriorityList{sources: deduped}, nil
}

// Sources returns the deduplicated, order-preserving priority list.
func (l SourcePriorityList) Sources() []timesrc.Source { return l.sources }

// Len returns the number of distinct sources in the list.
func (l SourcePriorityList) Len() int { return len(l.sources) }

// Policy is the closed tagged union of conflict-resolution strategies.
// The zero value is KindHighestConfidence, the spec-mandated default.
type Policy struct {
	Kind     Kind
	Priority SourcePriorityList // only meaningful when Kind == KindSourcePriority
}

// Default returns the highest_confidence policy, the default per spec.md §4.3.
func Default() Policy { return Policy{Kind: KindHighestConfidence} }

func LatestWins() Policy       { return Policy{Kind: KindLatestWins} }
func HighestConfidence() Policy { return Policy{Kind: KindHighestConfidence} }
func ExplicitConflict() Policy { return Policy{Kind: KindExplicitConflict} }

func SourcePriority(list SourcePriorityList) Policy {
	return Policy{Kind: KindSourcePriority, Priority: list}
}

// Resolve applies p to a non-empty set of competing beliefs about the same
// (entity, predicate) and returns the winning subset. latest_wins and
// highest_confidence always return exactly one belief; explicit_conflict
// returns the full input set unresolved; source_priority returns one
// belief, or falls back to latest_wins if none match the priority list.
func Resolve(p Policy, beliefs []belief.Belief) ([]belief.Belief, error) {
	if len(beliefs) == 0 {
		return nil, kerrors.Internal("policy: Resolve called with no candidates")
	}
	if len(beliefs) == 1 {
		return beliefs, nil
	}

	switch p.Kind {
	case KindExplicitConflict:
		return beliefs, nil
	case KindLatestWins:
		return []belief.Belief{pickLatestWins(beliefs)}, nil
	case KindHighestConfidence, "":
		return []belief.Belief{pickHighestConfidence(beliefs)}, nil
	case KindSourcePriority:
		return []belief.Belief{pickSourcePriority(p.Priority, beliefs)}, nil
	default:
		return nil, kerrors.InvalidConflictResolutionPolicy("unknown policy kind")
	}
}

// pickLatestWins selects the maximum tx_time, breaking ties by ascending BeliefId.
func pickLatestWins(beliefs []belief.Belief) belief.Belief {
	best := beliefs[0]
	for _, b := range beliefs[1:] {
		if b.TxTime.After(best.TxTime) {
			best = b
		} else if b.TxTime.Equal(best.TxTime) && b.ID.Less(best.ID) {
			best = b
		}
	}
	return best
}

// pickHighestConfidence selects the maximum confidence value, breaking ties
// by latest tx_time, then ascending BeliefId.
func pickHighestConfidence(beliefs []belief.Belief) belief.Belief {
	best := beliefs[0]
	for _, b := range beliefs[1:] {
		switch {
		case b.Confidence.Value > best.Confidence.Value:
			best = b
		case b.Confidence.Value == best.Confidence.Value:
			if b.TxTime.After(best.TxTime) {
				best = b
			} else if b.TxTime.Equal(best.TxTime) && b.ID.Less(best.ID) {
				best = b
			}
		}
	}
	return best
}

// pickSourcePriority picks the first belief whose source matches the
// earliest-ranked entry in priority. Unmatched beliefs are discarded for
// selection; if none match, falls back to latest_wins over the full set.
func pickSourcePriority(priority SourcePriorityList, beliefs []belief.Belief) belief.Belief {
	for _, candidate := range priority.Sources() {
		var matched []belief.Belief
		for _, b := range beliefs {
			if b.Source.Equal(candidate) {
				matched = append(matched, b)
			}
		}
		if len(matched) > 0 {
			// Multiple beliefs from the same priority source: break ties
			// the same way latest_wins would.
			sort.Slice(matched, func(i, j int) bool {
				if !matched[i].TxTime.Equal(matched[j].TxTime) {
					return matched[i].TxTime.After(matched[j].TxTime)
				}
				return matched[i].ID.Less(matched[j].ID)
			})
			return matched[0]
		}
	}
	return pickLatestWins(beliefs)
}
