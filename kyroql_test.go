package kyroql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
	"github.com/kyrodb/kyroql/internal/policy"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func assertOp(t *testing.T, entityID ids.EntityId, predicate string, conf float64) ir.Operation {
	t.Helper()
	op, err := ir.NewAssertBuilder(entityID, predicate, value.OfString("x"), conf, timesrc.NewAgentSource("a1", "cli", "")).Build()
	require.NoError(t, err)
	return op
}

func TestAssertThenResolveRoundTrip(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	entityID := ids.NewEntityId()

	res, err := e.Execute(ctx, assertOp(t, entityID, "likes", 0.9))
	require.NoError(t, err)
	require.NotNil(t, res.Assert)

	resolveOp, err := ir.NewResolveBuilder().WithEntityID(entityID).Build()
	require.NoError(t, err)

	result, err := e.Execute(ctx, resolveOp)
	require.NoError(t, err)
	require.NotNil(t, result.Resolve)
	require.Len(t, result.Resolve.Matches, 1)
	assert.Equal(t, res.Assert.BeliefID, result.Resolve.Matches[0].ID)
}

func TestRetractHidesBeliefFromResolveButKeepsLog(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	entityID := ids.NewEntityId()

	assertRes, err := e.Execute(ctx, assertOp(t, entityID, "likes", 0.9))
	require.NoError(t, err)

	retractOp, err := ir.NewRetractBuilder(assertRes.Assert.BeliefID).Build()
	require.NoError(t, err)
	_, err = e.Execute(ctx, retractOp)
	require.NoError(t, err)

	resolveOp, err := ir.NewResolveBuilder().WithEntityID(entityID).Build()
	require.NoError(t, err)
	result, err := e.Execute(ctx, resolveOp)
	require.NoError(t, err)
	assert.Empty(t, result.Resolve.Matches)

	assert.True(t, e.store.IsRetracted(assertRes.Assert.BeliefID))
}

func TestResolveAppliesHighestConfidencePolicy(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	entityID := ids.NewEntityId()

	_, err := e.Execute(ctx, assertOp(t, entityID, "likes", 0.4))
	require.NoError(t, err)
	high, err := e.Execute(ctx, assertOp(t, entityID, "likes", 0.95))
	require.NoError(t, err)

	resolveOp, err := ir.NewResolveBuilder().WithEntityID(entityID).WithConflictPolicy(policy.HighestConfidence()).Build()
	require.NoError(t, err)
	result, err := e.Execute(ctx, resolveOp)
	require.NoError(t, err)
	require.Len(t, result.Resolve.Matches, 1)
	assert.Equal(t, high.Assert.BeliefID, result.Resolve.Matches[0].ID)
}

func TestMonitorFiresOnConfidenceShiftAboveThreshold(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	entityID := ids.NewEntityId()

	monitorOp := ir.Monitor(ir.MonitorPayload{
		Triggers: []ir.Trigger{ir.NewConfidenceShiftTrigger(&entityID, nil, 0.01)},
	})
	result, err := e.Execute(ctx, monitorOp)
	require.NoError(t, err)
	require.NotNil(t, result.Monitor)
	defer result.Monitor.Stream.Unsubscribe()

	_, err = e.Execute(ctx, assertOp(t, entityID, "likes", 0.9))
	require.NoError(t, err)

	event, err := result.Monitor.Stream.RecvTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, entityID, event.Observation.EntityID)
}

func TestDeriveRecordsLineage(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	entityID := ids.NewEntityId()

	premise, err := e.Execute(ctx, assertOp(t, entityID, "likes", 0.9))
	require.NoError(t, err)

	deriveOp, err := ir.NewDeriveBuilder([]ids.BeliefId{premise.Assert.BeliefID}, "modus_ponens").Build()
	require.NoError(t, err)
	result, err := e.Execute(ctx, deriveOp)
	require.NoError(t, err)
	require.NotNil(t, result.Derive)

	_, ok := e.store.Derivation(result.Derive.DerivationID)
	assert.True(t, ok)
}

func TestSimulateValidatesButDoesNotExecute(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	simOp := ir.Simulate(ir.SimulatePayload{})
	// Default-zero constraints fail Validate (all bounds must be positive),
	// exercising the validation-before-delegation path.
	_, execErr := e.Execute(ctx, simOp)
	require.Error(t, execErr)
}

func TestDefinePatternStoresDefinition(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	op := ir.DefinePattern(ir.DefinePatternPayload{Name: "no-contradiction", Rule: "always_true"})
	result, err := e.Execute(ctx, op)
	require.NoError(t, err)
	require.NotNil(t, result.DefinePattern)

	stored, ok := e.store.Pattern(result.DefinePattern.PatternID)
	require.True(t, ok)
	assert.Equal(t, "no-contradiction", stored.Name)
}
