package persistent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrodb/kyroql/internal/belief"
	"github.com/kyrodb/kyroql/internal/confidence"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
)

func mkBelief(t *testing.T, entityID ids.EntityId, predicate string, confVal float64) belief.Belief {
	t.Helper()
	conf, err := confidence.FromAgent(confVal, "agent-1")
	require.NoError(t, err)
	now := time.Now().UTC()
	vt := timesrc.FromNow(now)
	b, err := belief.New(entityID, predicate, value.OfString("v"), conf, timesrc.NewAgentSource("agent-1", "scraper", ""), vt, now, nil, belief.ConsistencyEventual)
	require.NoError(t, err)
	return b
}

func TestStoreAssertAndQuery(t *testing.T) {
	s, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	entity := ids.NewEntityId()
	b := mkBelief(t, entity, "temperature", 0.9)
	require.NoError(t, s.AssertBelief(b))

	got := s.BeliefsForEntity(entity)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)
}

func TestStoreRetractMarksRetracted(t *testing.T) {
	s, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	entity := ids.NewEntityId()
	b := mkBelief(t, entity, "temperature", 0.9)
	require.NoError(t, s.AssertBelief(b))

	reason := "superseded"
	require.NoError(t, s.RetractBelief(b.ID, &reason))

	assert.True(t, s.IsRetracted(b.ID))
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	entity := ids.NewEntityId()
	b := mkBelief(t, entity, "likes", 0.7)
	require.NoError(t, s.AssertBelief(b))
	require.NoError(t, s.Close())

	s2, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	got := s2.BeliefsForEntity(entity)
	require.Len(t, got, 1)
	assert.Equal(t, b.Predicate, got[0].Predicate)
}

func TestStoreDefinePatternAndLookup(t *testing.T) {
	s, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	p := belief.Pattern{ID: ids.NewPatternId(), Name: "rising-temp", Rule: "temperature > 100"}
	require.NoError(t, s.DefinePattern(p))

	got, ok := s.Pattern(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.Name, got.Name)
}

func TestStoreConcurrentReadDuringWrite(t *testing.T) {
	s, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	entity := ids.NewEntityId()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = s.AssertBelief(mkBelief(t, entity, "p", 0.5))
		}
	}()

	for i := 0; i < 50; i++ {
		_ = s.BeliefsForEntity(entity)
	}
	<-done

	got := s.BeliefsForEntity(entity)
	assert.Len(t, got, 50)
}
