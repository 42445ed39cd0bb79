package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := NewDispatcher(Config{})
	d.Run()
	t.Cleanup(d.Shutdown)
	return d
}

func confVal(v float64) *float64 { return &v }

func TestDispatcherMatchesConfidenceShiftTrigger(t *testing.T) {
	d := newTestDispatcher(t)

	entity := ids.NewEntityId()
	pred := "temperature"
	trig := ir.NewConfidenceShiftTrigger(&entity, &pred, 0.2)

	stream, err := d.Register([]ir.Trigger{trig}, nil)
	require.NoError(t, err)
	defer stream.Unsubscribe()

	d.Observe(Observation{
		EntityID:           entity,
		Predicate:          pred,
		PreviousConfidence: confVal(0.5),
		NewConfidence:      confVal(0.9),
		Timestamp:          time.Now(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := stream.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, stream.ID(), ev.SubscriptionID)
}

func TestDispatcherFiltersByEntityAndPredicate(t *testing.T) {
	d := newTestDispatcher(t)

	watched := ids.NewEntityId()
	other := ids.NewEntityId()
	pred := "temperature"
	trig := ir.NewConfidenceShiftTrigger(&watched, &pred, 0.1)

	stream, err := d.Register([]ir.Trigger{trig}, nil)
	require.NoError(t, err)
	defer stream.Unsubscribe()

	d.Observe(Observation{
		EntityID:           other,
		Predicate:          pred,
		PreviousConfidence: confVal(0.1),
		NewConfidence:      confVal(0.9),
	})
	d.Observe(Observation{
		EntityID:           watched,
		Predicate:          "humidity",
		PreviousConfidence: confVal(0.1),
		NewConfidence:      confVal(0.9),
	})
	d.Observe(Observation{
		EntityID:           watched,
		Predicate:          pred,
		PreviousConfidence: confVal(0.1),
		NewConfidence:      confVal(0.9),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := stream.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, watched, ev.Observation.EntityID)
	assert.Equal(t, pred, ev.Observation.Predicate)
}

func TestDispatcherDropsEventWhenStreamFull(t *testing.T) {
	d := NewDispatcher(Config{StreamCapacity: 1})
	d.Run()
	defer d.Shutdown()

	entity := ids.NewEntityId()
	pred := "p"
	trig := ir.NewConfidenceShiftTrigger(&entity, &pred, 0.0)

	stream, err := d.Register([]ir.Trigger{trig}, nil)
	require.NoError(t, err)
	defer stream.Unsubscribe()

	for i := 0; i < 5; i++ {
		d.Observe(Observation{EntityID: entity, Predicate: pred, PreviousConfidence: confVal(0), NewConfidence: confVal(1)})
	}

	// Give the worker a moment to process the backlog against the
	// capacity-1 stream before we start draining.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = stream.Recv(ctx)
	require.NoError(t, err)

	// The other four observations met a full stream and were dropped, so
	// nothing further is queued.
	_, err = stream.RecvTimeout(50 * time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcherUnsubscribeIsIdempotent(t *testing.T) {
	d := newTestDispatcher(t)

	entity := ids.NewEntityId()
	pred := "p"
	trig := ir.NewConfidenceShiftTrigger(&entity, &pred, 0.0)

	stream, err := d.Register([]ir.Trigger{trig}, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		stream.Unsubscribe()
		stream.Unsubscribe()
	})
}

func TestDispatcherRegisterRejectsPastExpiry(t *testing.T) {
	d := newTestDispatcher(t)

	entity := ids.NewEntityId()
	pred := "p"
	trig := ir.NewConfidenceShiftTrigger(&entity, &pred, 0.0)

	past := time.Now().Add(-time.Millisecond)
	_, err := d.Register([]ir.Trigger{trig}, &past)
	assert.Error(t, err)

	now := time.Now()
	_, err = d.Register([]ir.Trigger{trig}, &now)
	assert.Error(t, err, "expires_at equal to now is not strictly in the future")
}

func TestDispatcherExpirySweepClosesStream(t *testing.T) {
	d := newTestDispatcher(t)

	entity := ids.NewEntityId()
	pred := "p"
	trig := ir.NewConfidenceShiftTrigger(&entity, &pred, 0.0)

	soon := time.Now().Add(2 * ExpiryCleanupInterval)
	stream, err := d.Register([]ir.Trigger{trig}, &soon)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = stream.Recv(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestDispatcherRegisterRejectsNoTriggers(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Register(nil, nil)
	assert.Error(t, err)
}
