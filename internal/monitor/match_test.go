package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
)

func TestMatchesConfidenceShiftBelowThreshold(t *testing.T) {
	trig := ir.NewConfidenceShiftTrigger(nil, nil, 0.5)
	obs := Observation{PreviousConfidence: confVal(0.5), NewConfidence: confVal(0.6)}
	assert.False(t, Matches(trig, obs))
}

func TestMatchesConfidenceShiftAtThreshold(t *testing.T) {
	// 0.75 - 0.5 is exactly 0.25 in float64, so the delta equals the threshold.
	trig := ir.NewConfidenceShiftTrigger(nil, nil, 0.25)
	obs := Observation{PreviousConfidence: confVal(0.5), NewConfidence: confVal(0.75)}
	assert.True(t, Matches(trig, obs))
}

func TestMatchesPatternViolationRequiresSamePattern(t *testing.T) {
	p1 := ids.NewPatternId()
	p2 := ids.NewPatternId()
	trig := ir.NewPatternViolationTrigger(p1)
	assert.True(t, Matches(trig, Observation{PatternID: &p1}))
	assert.False(t, Matches(trig, Observation{PatternID: &p2}))
	assert.False(t, Matches(trig, Observation{}))
}

func TestMatchesNoPriorConfidenceHasZeroDelta(t *testing.T) {
	trig := ir.NewConfidenceShiftTrigger(nil, nil, 0.0)
	obs := Observation{NewConfidence: confVal(0.9)}
	assert.True(t, Matches(trig, obs))

	strictTrig := ir.NewConfidenceShiftTrigger(nil, nil, 0.01)
	assert.False(t, Matches(strictTrig, obs))
}
