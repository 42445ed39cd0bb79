package persistent

import (
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kyrodb/kyroql/internal/belief"
	"github.com/kyrodb/kyroql/internal/derivation"
	"github.com/kyrodb/kyroql/internal/ids"
)

// Store is KyroQL's embedded belief store: a WAL-backed log of beliefs,
// retractions, patterns, and derivations, with a copy-on-write in-memory
// index rebuilt from the log at Open and kept current on every write.
//
// Index snapshots are copy-on-write: readers hold a *beliefIndex obtained
// under the lock and never see it mutated in place, so a long-running scan
// never blocks a concurrent writer and vice versa.
type Store struct {
	wal *WAL

	mu    sync.RWMutex
	index *beliefIndex

	recordCache *lru.Cache[uint64, decodedRecord]
}

// beliefIndex is the point-in-time queryable state: every non-retracted
// belief grouped by entity, every pattern by ID, every derivation by ID.
// Replaced wholesale (never mutated) on each write, so a reader that took
// a reference keeps a consistent view.
type beliefIndex struct {
	beliefs     map[ids.EntityId][]belief.Belief
	retracted   map[ids.BeliefId]bool
	patterns    map[ids.PatternId]belief.Pattern
	derivations map[ids.DerivationId]derivation.Record
}

func newBeliefIndex() *beliefIndex {
	return &beliefIndex{
		beliefs:     make(map[ids.EntityId][]belief.Belief),
		retracted:   make(map[ids.BeliefId]bool),
		patterns:    make(map[ids.PatternId]belief.Pattern),
		derivations: make(map[ids.DerivationId]derivation.Record),
	}
}

// clone returns a shallow copy of the index whose top-level maps are fresh,
// so appending to it never mutates a snapshot a reader is using.
func (idx *beliefIndex) clone() *beliefIndex {
	n := newBeliefIndex()
	for k, v := range idx.beliefs {
		cp := make([]belief.Belief, len(v))
		copy(cp, v)
		n.beliefs[k] = cp
	}
	for k, v := range idx.retracted {
		n.retracted[k] = v
	}
	for k, v := range idx.patterns {
		n.patterns[k] = v
	}
	for k, v := range idx.derivations {
		n.derivations[k] = v
	}
	return n
}

// recordCacheSize bounds the read-side LRU over decoded segment records.
const recordCacheSize = 4096

// Open opens a Store rooted at cfg.Dir: it opens the underlying WAL,
// replays every record to rebuild the in-memory index, and returns ready
// to serve reads and accept writes.
func Open(cfg Config) (*Store, error) {
	w, err := OpenWAL(cfg)
	if err != nil {
		return nil, err
	}
	records, err := w.Recover()
	if err != nil {
		w.Close()
		return nil, err
	}

	cache, err := lru.New[uint64, decodedRecord](recordCacheSize)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("persistent: build record cache: %w", err)
	}

	s := &Store{wal: w, index: newBeliefIndex(), recordCache: cache}
	for _, rec := range records {
		cache.Add(rec.Seq, rec)
		if err := s.applyLocked(rec); err != nil {
			w.Close()
			return nil, fmt.Errorf("persistent: replay record %d: %w", rec.Seq, err)
		}
	}
	return s, nil
}

// retractionPayload is the WAL payload for a KindBeliefRetracted record.
type retractionPayload struct {
	BeliefID ids.BeliefId `json:"belief_id"`
	Reason   *string      `json:"reason,omitempty"`
}

// applyLocked folds one decoded record into s.index. Called both during
// Open's replay (no lock needed, single-threaded) and after a fresh
// append under s.mu.
func (s *Store) applyLocked(rec decodedRecord) error {
	switch rec.Kind {
	case KindBeliefAsserted:
		var b belief.Belief
		if err := json.Unmarshal(rec.Payload, &b); err != nil {
			return fmt.Errorf("decode belief: %w", err)
		}
		next := s.index.clone()
		next.beliefs[b.EntityID] = append(next.beliefs[b.EntityID], b)
		s.index = next
	case KindBeliefRetracted:
		var p retractionPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("decode retraction: %w", err)
		}
		next := s.index.clone()
		next.retracted[p.BeliefID] = true
		s.index = next
	case KindPatternDefined:
		var p belief.Pattern
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("decode pattern: %w", err)
		}
		next := s.index.clone()
		next.patterns[p.ID] = p
		s.index = next
	case KindDerivationRecorded:
		var d derivation.Record
		if err := json.Unmarshal(rec.Payload, &d); err != nil {
			return fmt.Errorf("decode derivation: %w", err)
		}
		next := s.index.clone()
		next.derivations[d.ID] = d
		s.index = next
	case KindCheckpointMarker:
		// no index effect; exists only to mark a Checkpoint boundary.
	default:
		return fmt.Errorf("unknown record kind %d", rec.Kind)
	}
	return nil
}

// AssertBelief durably appends b and folds it into the index. The WAL
// append is synchronous with respect to the caller: by the time this
// returns, the belief is recoverable after a crash (spec.md §4.10's
// durability-before-observation ordering).
func (s *Store) AssertBelief(b belief.Belief) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("persistent: marshal belief: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.wal.Append(KindBeliefAsserted, payload)
	if err != nil {
		return err
	}
	s.recordCache.Add(seq, decodedRecord{Seq: seq, Kind: KindBeliefAsserted, Payload: payload})
	return s.applyLocked(decodedRecord{Seq: seq, Kind: KindBeliefAsserted, Payload: payload})
}

// RetractBelief durably marks beliefID as retracted. The original assertion
// remains in the log for audit; only the index's retracted set changes.
func (s *Store) RetractBelief(beliefID ids.BeliefId, reason *string) error {
	payload, err := json.Marshal(retractionPayload{BeliefID: beliefID, Reason: reason})
	if err != nil {
		return fmt.Errorf("persistent: marshal retraction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.wal.Append(KindBeliefRetracted, payload)
	if err != nil {
		return err
	}
	s.recordCache.Add(seq, decodedRecord{Seq: seq, Kind: KindBeliefRetracted, Payload: payload})
	return s.applyLocked(decodedRecord{Seq: seq, Kind: KindBeliefRetracted, Payload: payload})
}

// DefinePattern durably stores p.
func (s *Store) DefinePattern(p belief.Pattern) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("persistent: marshal pattern: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.wal.Append(KindPatternDefined, payload)
	if err != nil {
		return err
	}
	s.recordCache.Add(seq, decodedRecord{Seq: seq, Kind: KindPatternDefined, Payload: payload})
	return s.applyLocked(decodedRecord{Seq: seq, Kind: KindPatternDefined, Payload: payload})
}

// RecordDerivation durably stores d, linking a derived belief to its premises.
func (s *Store) RecordDerivation(d derivation.Record) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("persistent: marshal derivation: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.wal.Append(KindDerivationRecorded, payload)
	if err != nil {
		return err
	}
	s.recordCache.Add(seq, decodedRecord{Seq: seq, Kind: KindDerivationRecorded, Payload: payload})
	return s.applyLocked(decodedRecord{Seq: seq, Kind: KindDerivationRecorded, Payload: payload})
}

// BeliefsForEntity returns a snapshot of every belief (including retracted
// ones, caller filters) asserted for entityID, in assertion order.
func (s *Store) BeliefsForEntity(entityID ids.EntityId) []belief.Belief {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	beliefs := idx.beliefs[entityID]
	out := make([]belief.Belief, len(beliefs))
	copy(out, beliefs)
	return out
}

// AllEntityIDs returns every entity that has at least one asserted belief.
func (s *Store) AllEntityIDs() []ids.EntityId {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	out := make([]ids.EntityId, 0, len(idx.beliefs))
	for id := range idx.beliefs {
		out = append(out, id)
	}
	return out
}

// IsRetracted reports whether beliefID has been retracted.
func (s *Store) IsRetracted(beliefID ids.BeliefId) bool {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	return idx.retracted[beliefID]
}

// Pattern looks up a stored pattern by ID.
func (s *Store) Pattern(id ids.PatternId) (belief.Pattern, bool) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	p, ok := idx.patterns[id]
	return p, ok
}

// Derivation looks up a stored derivation record by ID.
func (s *Store) Derivation(id ids.DerivationId) (derivation.Record, bool) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	d, ok := idx.derivations[id]
	return d, ok
}

// Checkpoint flushes the WAL's manifest, sealing all but the active segment.
func (s *Store) Checkpoint() error {
	return s.wal.Checkpoint()
}

// Close closes the underlying WAL and releases the directory lock.
func (s *Store) Close() error {
	return s.wal.Close()
}
