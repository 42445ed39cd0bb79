package timesrc

import (
	"fmt"

	"github.com/kyrodb/kyroql/internal/ids"
)

// SourceKind discriminates the belief provenance Source variants. Distinct
// from confidence.SourceKind (ConfidenceSource), per SPEC_FULL.md §3.
type SourceKind string

const (
	SourceAgent      SourceKind = "agent"
	SourceHuman      SourceKind = "human"
	SourceSensor     SourceKind = "sensor"
	SourceModel      SourceKind = "model"
	SourceAggregated SourceKind = "aggregated"
	SourceDerived    SourceKind = "derived"
	SourceUnknown    SourceKind = "unknown"
)

// Source is the closed tagged union of belief provenance. Construct with
// the New* helpers below.
type Source struct {
	Kind           SourceKind   `json:"type"`
	AgentID        string       `json:"agent_id,omitempty"`
	AgentType      string       `json:"agent_type,omitempty"`
	ModelVersion   string       `json:"model_version,omitempty"`
	UserID         string       `json:"user_id,omitempty"`
	SensorID       string       `json:"sensor_id,omitempty"`
	SensorType     string       `json:"sensor_type,omitempty"`
	ModelID        string       `json:"model_id,omitempty"`
	SourceIDs      []ids.SourceId `json:"source_ids,omitempty"`
	AggregationMethod string      `json:"aggregation_method,omitempty"`
	PremiseIDs     []ids.BeliefId `json:"premise_ids,omitempty"`
	Rule           string       `json:"rule,omitempty"`
	Description    string       `json:"description,omitempty"`
}

func NewAgentSource(agentID, agentType, modelVersion string) Source {
	return Source{Kind: SourceAgent, AgentID: agentID, AgentType: agentType, ModelVersion: modelVersion}
}

func NewHumanSource(userID string) Source {
	return Source{Kind: SourceHuman, UserID: userID}
}

func NewSensorSource(sensorID, sensorType string) Source {
	return Source{Kind: SourceSensor, SensorID: sensorID, SensorType: sensorType}
}

func NewModelSource(modelID, modelVersion string) Source {
	return Source{Kind: SourceModel, ModelID: modelID, ModelVersion: modelVersion}
}

func NewAggregatedSource(sourceIDs []ids.SourceId, method string) Source {
	return Source{Kind: SourceAggregated, SourceIDs: sourceIDs, AggregationMethod: method}
}

func NewDerivedSource(premiseIDs []ids.BeliefId, rule string) Source {
	return Source{Kind: SourceDerived, PremiseIDs: premiseIDs, Rule: rule}
}

func NewUnknownSource(description string) Source {
	return Source{Kind: SourceUnknown, Description: description}
}

// Equal reports whether two sources denote the same identity, used by the
// source_priority conflict policy to match a belief's source against a
// priority list entry. Sources are equal when their kind and identifying
// fields match; provenance metadata (agent_type, model_version, etc) is
// ignored for matching purposes.
func (s Source) Equal(other Source) bool {
	if s.Kind != other.Kind {
		return false
	}
	switch s.Kind {
	case SourceAgent:
		return s.AgentID == other.AgentID
	case SourceHuman:
		return s.UserID == other.UserID
	case SourceSensor:
		return s.SensorID == other.SensorID
	case SourceModel:
		return s.ModelID == other.ModelID
	case SourceAggregated:
		return idSlicesEqual(s.SourceIDs, other.SourceIDs)
	case SourceDerived:
		return s.Rule == other.Rule && beliefIDSlicesEqual(s.PremiseIDs, other.PremiseIDs)
	case SourceUnknown:
		return s.Description == other.Description
	default:
		return false
	}
}

func idSlicesEqual(a, b []ids.SourceId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func beliefIDSlicesEqual(a, b []ids.BeliefId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate enforces that Source carries a recognized, non-empty kind.
func (s Source) Validate() error {
	switch s.Kind {
	case SourceAgent, SourceHuman, SourceSensor, SourceModel, SourceAggregated, SourceDerived, SourceUnknown:
		return nil
	default:
		return fmt.Errorf("timesrc: unknown source kind %q", s.Kind)
	}
}
