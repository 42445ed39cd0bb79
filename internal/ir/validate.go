package ir

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kyrodb/kyroql/internal/derivation"
	"github.com/kyrodb/kyroql/internal/kerrors"
	"github.com/kyrodb/kyroql/internal/value"
)

const maxTextLength = 16384

// Validate runs the full per-operation payload contract (spec.md §4.2),
// whether the Operation came from a builder or from deserialization — the
// same rules apply both times, since a deserialized document may not have
// gone through a builder at all.
func (op Operation) Validate() error {
	switch op.Type {
	case OpAssert:
		return op.Assert.Validate()
	case OpResolve:
		return op.Resolve.Validate()
	case OpRetract:
		return op.Retract.Validate()
	case OpDefinePattern:
		return op.DefinePattern.Validate()
	case OpSimulate:
		return op.Simulate.Validate()
	case OpMonitor:
		return op.Monitor.Validate()
	case OpDerive:
		return op.Derive.Validate()
	default:
		return kerrors.InvalidField("type", "unknown operation type")
	}
}

func validateText(field, s string, required bool) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		if required {
			return kerrors.MissingField(field)
		}
		return nil
	}
	if len(trimmed) > maxTextLength {
		return kerrors.FieldTooLong(field, maxTextLength)
	}
	return nil
}

func (p *AssertPayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil assert payload")
	}
	if err := validateText("predicate", p.Predicate, true); err != nil {
		return err
	}
	if p.ConfidenceValue < 0 || p.ConfidenceValue > 1 {
		return kerrors.ConfidenceOutOfRange(p.ConfidenceValue)
	}
	if p.Embedding != nil && !value.ValidEmbeddingLength(len(p.Embedding)) {
		return kerrors.InvalidEmbeddingDimension(len(p.Embedding), -1)
	}
	if p.ValidTime != nil && p.ValidTime.From.After(p.ValidTime.To) {
		return kerrors.InvalidTimeRange()
	}
	if err := p.Source.Validate(); err != nil {
		return kerrors.InvalidField("source", err.Error())
	}
	return nil
}

func (p *ResolvePayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil resolve payload")
	}
	hasQuery := p.Query != nil && strings.TrimSpace(*p.Query) != ""
	hasEmbedding := len(p.QueryEmbedding) > 0
	hasEntity := p.EntityID != nil
	hasPredicate := p.Predicate != nil && strings.TrimSpace(*p.Predicate) != ""
	if !hasQuery && !hasEmbedding && !hasEntity && !hasPredicate {
		return kerrors.MissingField("query|query_embedding|entity_id|predicate")
	}
	if p.Query != nil {
		if err := validateText("query", *p.Query, false); err != nil {
			return err
		}
	}
	if p.MinConfidence != nil && (*p.MinConfidence < 0 || *p.MinConfidence > 1) {
		return kerrors.ConfidenceOutOfRange(*p.MinConfidence)
	}
	if p.QueryEmbedding != nil && !value.ValidEmbeddingLength(len(p.QueryEmbedding)) {
		return kerrors.InvalidEmbeddingDimension(len(p.QueryEmbedding), -1)
	}
	if p.Limit <= 0 {
		return kerrors.InvalidField("limit", "must be positive")
	}
	return nil
}

func (p *RetractPayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil retract payload")
	}
	if p.Reason != nil {
		return validateText("reason", *p.Reason, false)
	}
	return nil
}

func (p *DefinePatternPayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil define_pattern payload")
	}
	if err := validateText("name", p.Name, true); err != nil {
		return err
	}
	if err := validateText("rule", p.Rule, true); err != nil {
		return err
	}
	if p.Description != "" {
		if err := validateText("description", p.Description, false); err != nil {
			return err
		}
	}
	if strings.TrimSpace(p.Rule) == "" {
		return kerrors.InvalidPatternRule("rule must not be empty")
	}
	return nil
}

func (p *SimulatePayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil simulate payload")
	}
	if err := p.Constraints.Validate(); err != nil {
		return err
	}
	if p.Description != "" {
		return validateText("description", p.Description, false)
	}
	return nil
}

func (p *MonitorPayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil monitor payload")
	}
	if len(p.Triggers) == 0 && p.ThresholdSpec == nil {
		return kerrors.MissingField("trigger")
	}
	if p.ThresholdSpec != nil && len(p.Triggers) > 0 {
		return kerrors.InvalidField("triggers", "cannot combine explicit triggers with threshold_spec")
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(time.Now()) {
		return kerrors.InvalidSimulationConstraints("expires_at must be in the future")
	}
	for _, t := range p.Triggers {
		switch t.Kind {
		case TriggerConfidenceShift, TriggerPatternViolation:
		default:
			return kerrors.InvalidSimulationConstraints("unknown trigger shape")
		}
	}
	return nil
}

func (p *DerivePayload) Validate() error {
	if p == nil {
		return kerrors.Internal("ir: nil derive payload")
	}
	if len(p.PremiseIDs) == 0 {
		return kerrors.MissingField("premise_ids")
	}
	if len(p.PremiseIDs) > derivation.MaxPremises {
		return kerrors.FieldTooLong("premise_ids", derivation.MaxPremises)
	}
	if len(p.InferenceSteps) > derivation.MaxSteps {
		return kerrors.FieldTooLong("inference_steps", derivation.MaxSteps)
	}
	if err := validateText("rule", p.Rule, true); err != nil {
		return err
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return kerrors.ConfidenceOutOfRange(*p.Confidence)
	}
	if p.Metadata != nil {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return kerrors.InvalidField("metadata", "not serializable: "+err.Error())
		}
		if len(raw) > derivation.MaxMetadataBytes {
			return kerrors.FieldTooLong("metadata", derivation.MaxMetadataBytes)
		}
	}
	return nil
}
