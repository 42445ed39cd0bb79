// Package derivation implements immutable DerivationRecords: audit entries
// linking a derived belief to its premises, the rule that produced it, and
// the propagated confidence (spec.md §3, §4.2 DerivePayload).
package derivation

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/kerrors"
)

const (
	MaxPremises     = 1024
	MaxSteps        = 256
	MaxMetadataBytes = 64 * 1024
)

// Record is an immutable audit entry. A Record references BeliefIds
// without owning the beliefs themselves — resolution goes through the
// belief store, avoiding cyclic ownership between beliefs and derivations.
type Record struct {
	ID              ids.DerivationId `json:"id"`
	TxTime          time.Time        `json:"tx_time"`
	DerivedBeliefID *ids.BeliefId    `json:"derived_belief_id,omitempty"`
	PremiseIDs      []ids.BeliefId   `json:"premise_ids"`
	Rule            string           `json:"rule"`
	InferenceSteps  []string         `json:"inference_steps,omitempty"`
	Confidence      *float64         `json:"confidence,omitempty"`
	Justification   *string          `json:"justification,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// New validates and constructs a DerivationRecord, enforcing a non-empty
// rule, 1..MaxPremises premises, at most MaxSteps inference steps, a
// confidence in [0,1], and serialized metadata of at most MaxMetadataBytes.
// ir.DerivePayload.Validate checks the same limits on deserialized payloads.
func New(
	txTime time.Time,
	derivedBeliefID *ids.BeliefId,
	premiseIDs []ids.BeliefId,
	rule string,
	inferenceSteps []string,
	conf *float64,
	justification *string,
	metadata map[string]any,
) (Record, error) {
	if len(premiseIDs) == 0 {
		return Record{}, kerrors.MissingField("premise_ids")
	}
	if len(premiseIDs) > MaxPremises {
		return Record{}, kerrors.FieldTooLong("premise_ids", MaxPremises)
	}

	trimmedRule := strings.TrimSpace(rule)
	if trimmedRule == "" {
		return Record{}, kerrors.MissingField("rule")
	}
	if len(trimmedRule) > 16384 {
		return Record{}, kerrors.FieldTooLong("rule", 16384)
	}

	if len(inferenceSteps) > MaxSteps {
		return Record{}, kerrors.FieldTooLong("inference_steps", MaxSteps)
	}

	if conf != nil && (*conf < 0 || *conf > 1) {
		return Record{}, kerrors.ConfidenceOutOfRange(*conf)
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return Record{}, kerrors.InvalidField("metadata", "not serializable: "+err.Error())
		}
		if len(raw) > MaxMetadataBytes {
			return Record{}, kerrors.FieldTooLong("metadata", MaxMetadataBytes)
		}
	}

	return Record{
		ID:              ids.NewDerivationId(),
		TxTime:          txTime,
		DerivedBeliefID: derivedBeliefID,
		PremiseIDs:      premiseIDs,
		Rule:            trimmedRule,
		InferenceSteps:  inferenceSteps,
		Confidence:      conf,
		Justification:   justification,
		Metadata:        metadata,
	}, nil
}
