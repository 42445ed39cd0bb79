package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/kerrors"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBuilderRejectsEmptyFilter(t *testing.T) {
	_, err := NewResolveBuilder().Build()
	require.Error(t, err)
	var ve *kerrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestResolveBuilderDefaults(t *testing.T) {
	op, err := NewResolveBuilder().WithQuery("temperature").Build()
	require.NoError(t, err)
	require.NotNil(t, op.Resolve)
	assert.Equal(t, 10, op.Resolve.Limit)
	assert.Equal(t, ModeSimple, op.Resolve.Mode)
	assert.True(t, op.Resolve.IncludeGaps)
	assert.False(t, op.Resolve.IncludeCounterEvidence)
	assert.NotEmpty(t, op.Resolve.QueryEmbedding)
}

func TestDeriveBuilderRejectsEmptyPremises(t *testing.T) {
	_, err := NewDeriveBuilder(nil, "if-then").Build()
	require.Error(t, err)
}

func TestDeriveBuilderSucceeds(t *testing.T) {
	op, err := NewDeriveBuilder([]ids.BeliefId{ids.NewBeliefId()}, "if-then").Build()
	require.NoError(t, err)
	assert.Equal(t, OpDerive, op.Type)
}

func TestAssertBuilderRejectsBadConfidence(t *testing.T) {
	src := timesrc.NewAgentSource("agent-1", "scraper", "")
	_, err := NewAssertBuilder(ids.NewEntityId(), "temperature", value.OfFloat(98.6), 1.5, src).Build()
	require.Error(t, err)
}

func TestOperationRoundTripAssert(t *testing.T) {
	src := timesrc.NewHumanSource("user-42")
	op, err := NewAssertBuilder(ids.NewEntityId(), "likes", value.OfString("coffee"), 0.9, src).Build()
	require.NoError(t, err)

	data, err := json.Marshal(op)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "assert", decoded["type"])

	var roundTripped Operation
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	assert.Equal(t, op.Type, roundTripped.Type)

	data2, err := json.Marshal(roundTripped)
	require.NoError(t, err)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(data, &first))
	require.NoError(t, json.Unmarshal(data2, &second))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOperationRoundTripResolve(t *testing.T) {
	op, err := NewResolveBuilder().WithQuery("coffee").Build()
	require.NoError(t, err)

	data, err := json.Marshal(op)
	require.NoError(t, err)

	var roundTripped Operation
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	assert.Equal(t, OpResolve, roundTripped.Type)
	require.NotNil(t, roundTripped.Resolve)
	assert.Equal(t, 10, roundTripped.Resolve.Limit)
	assert.Equal(t, op.Resolve.ConflictPolicy.Kind, roundTripped.Resolve.ConflictPolicy.Kind)
}

func TestOperationRoundTripDerive(t *testing.T) {
	op, err := NewDeriveBuilder([]ids.BeliefId{ids.NewBeliefId(), ids.NewBeliefId()}, "transitive").Build()
	require.NoError(t, err)

	data, err := json.Marshal(op)
	require.NoError(t, err)

	var roundTripped Operation
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	require.NotNil(t, roundTripped.Derive)
	assert.Equal(t, op.Derive.Rule, roundTripped.Derive.Rule)
	assert.ElementsMatch(t, op.Derive.PremiseIDs, roundTripped.Derive.PremiseIDs)
}

func TestUnmarshalUnknownTypeErrors(t *testing.T) {
	var op Operation
	err := json.Unmarshal([]byte(`{"type":"teleport"}`), &op)
	require.Error(t, err)
}

func TestMonitorPayloadRejectsBothTriggerShapes(t *testing.T) {
	entity := ids.NewEntityId()
	pred := "temperature"
	p := MonitorPayload{
		Triggers:      []Trigger{NewConfidenceShiftTrigger(&entity, &pred, 0.5)},
		ThresholdSpec: &ThresholdSpec{Threshold: 0.5},
	}
	err := p.Validate()
	require.Error(t, err)
}

func TestMonitorPayloadRejectsPastExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	p := MonitorPayload{
		ThresholdSpec: &ThresholdSpec{Threshold: 0.5},
		ExpiresAt:     &past,
	}
	err := p.Validate()
	require.Error(t, err)
}

func TestRetractPayloadOptionalReason(t *testing.T) {
	p := RetractPayload{BeliefID: ids.NewBeliefId()}
	require.NoError(t, p.Validate())
}
