// Package ids defines the opaque identifier kernel shared across KyroQL's
// domain types. Every ID is a random 128-bit UUID wrapped in a distinct Go
// type so the compiler catches an EntityId passed where a BeliefId is
// expected. IDs serialize transparently as bare UUID strings.
package ids

import (
	"encoding/json"

	"github.com/google/uuid"
)

// BeliefId identifies a single belief. Random, assigned at ASSERT time.
type BeliefId uuid.UUID

// EntityId identifies the subject of a belief.
type EntityId uuid.UUID

// SourceId identifies a provenance source (an aggregation member, etc).
type SourceId uuid.UUID

// DerivationId identifies a DerivationRecord.
type DerivationId uuid.UUID

// SubscriptionId identifies a live monitor subscription.
type SubscriptionId uuid.UUID

// TriggerId identifies a single trigger entry within a subscription.
type TriggerId uuid.UUID

// PatternId identifies a stored pattern definition.
type PatternId uuid.UUID

// NewBeliefId returns a fresh random BeliefId.
func NewBeliefId() BeliefId { return BeliefId(uuid.New()) }

// NewEntityId returns a fresh random EntityId.
func NewEntityId() EntityId { return EntityId(uuid.New()) }

// NewSourceId returns a fresh random SourceId.
func NewSourceId() SourceId { return SourceId(uuid.New()) }

// NewDerivationId returns a fresh random DerivationId.
func NewDerivationId() DerivationId { return DerivationId(uuid.New()) }

// NewSubscriptionId returns a fresh random SubscriptionId.
func NewSubscriptionId() SubscriptionId { return SubscriptionId(uuid.New()) }

// NewTriggerId returns a fresh random TriggerId.
func NewTriggerId() TriggerId { return TriggerId(uuid.New()) }

// NewPatternId returns a fresh random PatternId.
func NewPatternId() PatternId { return PatternId(uuid.New()) }

func (id BeliefId) String() string       { return uuid.UUID(id).String() }
func (id EntityId) String() string       { return uuid.UUID(id).String() }
func (id SourceId) String() string       { return uuid.UUID(id).String() }
func (id DerivationId) String() string   { return uuid.UUID(id).String() }
func (id SubscriptionId) String() string { return uuid.UUID(id).String() }
func (id TriggerId) String() string      { return uuid.UUID(id).String() }
func (id PatternId) String() string      { return uuid.UUID(id).String() }

func (id BeliefId) MarshalJSON() ([]byte, error)       { return json.Marshal(id.String()) }
func (id EntityId) MarshalJSON() ([]byte, error)       { return json.Marshal(id.String()) }
func (id SourceId) MarshalJSON() ([]byte, error)       { return json.Marshal(id.String()) }
func (id DerivationId) MarshalJSON() ([]byte, error)   { return json.Marshal(id.String()) }
func (id SubscriptionId) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }
func (id TriggerId) MarshalJSON() ([]byte, error)      { return json.Marshal(id.String()) }
func (id PatternId) MarshalJSON() ([]byte, error)      { return json.Marshal(id.String()) }

func (id *BeliefId) UnmarshalJSON(b []byte) error       { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *EntityId) UnmarshalJSON(b []byte) error       { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *SourceId) UnmarshalJSON(b []byte) error       { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *DerivationId) UnmarshalJSON(b []byte) error   { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *SubscriptionId) UnmarshalJSON(b []byte) error { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *TriggerId) UnmarshalJSON(b []byte) error      { return unmarshalUUID(b, (*uuid.UUID)(id)) }
func (id *PatternId) UnmarshalJSON(b []byte) error      { return unmarshalUUID(b, (*uuid.UUID)(id)) }

func unmarshalUUID(b []byte, dst *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

// Less provides a total ascending order over BeliefIds, used as the
// tie-break in conflict resolution policies (latest_wins, highest_confidence).
func (id BeliefId) Less(other BeliefId) bool {
	a, b := uuid.UUID(id), uuid.UUID(other)
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
