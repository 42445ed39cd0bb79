// Package confidence implements the calibrated confidence kernel: a value
// in [0,1] bundled with a calibration mode and a provenance source, plus
// the and/or combinators that capture derivation lineage (spec.md §4.1).
package confidence

import (
	"fmt"
	"math"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/kerrors"
)

// Calibration describes the semantics of a confidence number.
type Calibration string

const (
	CalibrationProbability   Calibration = "probability"
	CalibrationHeuristic     Calibration = "heuristic"
	CalibrationModelLogprob  Calibration = "model_logprob"
	CalibrationSourceWeighted Calibration = "source_weighted"
)

// SourceKind discriminates ConfidenceSource, the provenance of a confidence
// value — distinct from timesrc.Source, the provenance of the belief itself.
type SourceKind string

const (
	SourceAssertedByAgent     SourceKind = "asserted_by_agent"
	SourceAssertedByHuman     SourceKind = "asserted_by_human"
	SourceAssertedBySensor    SourceKind = "asserted_by_sensor"
	SourceComputedByModel     SourceKind = "computed_by_model"
	SourceAggregatedFromSources SourceKind = "aggregated_from_sources"
	SourceDerivedFromPremises SourceKind = "derived_from_premises"
	SourceUnknown             SourceKind = "unknown"
)

// ConfidenceSource is the closed tagged union of confidence provenance.
type ConfidenceSource struct {
	Kind            SourceKind     `json:"type"`
	AgentID         string         `json:"agent_id,omitempty"`
	ModelID         string         `json:"model_id,omitempty"`
	ModelVersion    string         `json:"model_version,omitempty"`
	PremiseIDs      []ids.BeliefId `json:"premise_ids,omitempty"`
	PropagationRule string         `json:"propagation_rule,omitempty"`
}

// Confidence is a calibrated belief-strength value: a number in [0,1] with
// an explicit calibration mode and provenance. Immutable once constructed.
type Confidence struct {
	Value       float64          `json:"value"`
	Calibration Calibration      `json:"calibration"`
	Source      ConfidenceSource `json:"source"`
}

// New validates value and constructs a Confidence with an explicit
// calibration and source. Fails with ConfidenceOutOfRange if value is NaN
// or outside [0,1].
func New(value float64, calibration Calibration, source ConfidenceSource) (Confidence, error) {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return Confidence{}, kerrors.ConfidenceOutOfRange(value)
	}
	return Confidence{Value: value, Calibration: calibration, Source: source}, nil
}

// FromAgent constructs a probability-calibrated confidence asserted by an agent.
func FromAgent(value float64, agentID string) (Confidence, error) {
	return New(value, CalibrationProbability, ConfidenceSource{Kind: SourceAssertedByAgent, AgentID: agentID})
}

// FromHuman constructs a probability-calibrated confidence asserted by a human.
func FromHuman(value float64, userID string) (Confidence, error) {
	return New(value, CalibrationProbability, ConfidenceSource{Kind: SourceAssertedByHuman, AgentID: userID})
}

// FromSensor constructs a probability-calibrated confidence asserted by a sensor.
func FromSensor(value float64, sensorID string) (Confidence, error) {
	return New(value, CalibrationProbability, ConfidenceSource{Kind: SourceAssertedBySensor, AgentID: sensorID})
}

// FromModel constructs a model_logprob-calibrated confidence computed by a model.
func FromModel(value float64, modelID, modelVersion string) (Confidence, error) {
	return New(value, CalibrationModelLogprob, ConfidenceSource{Kind: SourceComputedByModel, ModelID: modelID, ModelVersion: modelVersion})
}

// Unknown constructs a heuristic-calibrated confidence of unknown provenance.
func Unknown(value float64) (Confidence, error) {
	return New(value, CalibrationHeuristic, ConfidenceSource{Kind: SourceUnknown})
}

// IsCalibrated reports whether c carries a non-heuristic calibration mode.
func (c Confidence) IsCalibrated() bool {
	return c.Calibration != CalibrationHeuristic
}

// And combines two confidences by the conjunction rule: the minimum of the
// two values. The result's calibration degrades unconditionally to
// heuristic (Open Question (b) in spec.md §9 is resolved in favor of the
// literal text: degrade, don't preserve the higher calibration) and its
// provenance becomes derived_from_premises, carrying both parents' ids
// (None premise ids filtered out) and propagation rule "min".
func (c Confidence) And(other Confidence, selfID, otherID *ids.BeliefId) Confidence {
	return combine(c, other, math.Min, "min", selfID, otherID)
}

// Or combines two confidences by the disjunction rule: the maximum of the
// two values. See And for calibration/provenance rules.
func (c Confidence) Or(other Confidence, selfID, otherID *ids.BeliefId) Confidence {
	return combine(c, other, math.Max, "max", selfID, otherID)
}

func combine(a, b Confidence, op func(x, y float64) float64, rule string, selfID, otherID *ids.BeliefId) Confidence {
	var premises []ids.BeliefId
	if selfID != nil {
		premises = append(premises, *selfID)
	}
	if otherID != nil {
		premises = append(premises, *otherID)
	}
	return Confidence{
		Value:       op(a.Value, b.Value),
		Calibration: CalibrationHeuristic,
		Source: ConfidenceSource{
			Kind:            SourceDerivedFromPremises,
			PremiseIDs:      premises,
			PropagationRule: rule,
		},
	}
}

// String formats a Confidence as "{value:.2} ({calibration})".
func (c Confidence) String() string {
	return fmt.Sprintf("%.2f (%s)", c.Value, c.Calibration)
}
