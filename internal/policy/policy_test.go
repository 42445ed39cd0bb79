package policy

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

func mkBelief(t *testing.T, conf float64, txTime time.Time, source timesrc.Source) belief.Belief {
	t.Helper()
	c, err := confidence.New(conf, confidence.CalibrationProbability, confidence.ConfidenceSource{Kind: confidence.SourceUnknown})
	require.NoError(t, err)
	b, err := belief.New(ids.NewEntityId(), "likes", value.OfBool(true), c, source, timesrc.FromNow(txTime), txTime, nil, "")
	require.NoError(t, err)
	return b
}

func TestSourcePriorityListDedup(t *testing.T) {
	s1 := timesrc.NewAgentSource("s1", "", "")
	s2 := timesrc.NewAgentSource("s2", "", "")
	list, err := NewSourcePriorityList([]timesrc.Source{s1, s2, s1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, []timesrc.Source{s1, s2}, list.Sources())
}

func TestSourcePriorityListRejectsEmpty(t *testing.T) {
	_, err := NewSourcePriorityList(nil)
	require.Error(t, err)
}

func TestLatestWinsTieBreaksByBeliefID(t *testing.T) {
	now := time.Now()
	src := timesrc.NewAgentSource("a", "", "")
	b1 := mkBelief(t, 0.5, now, src)
	b2 := mkBelief(t, 0.5, now, src)

	winner, err := Resolve(LatestWins(), []belief.Belief{b1, b2})
	require.NoError(t, err)
	require.Len(t, winner, 1)

	var expected belief.Belief
	if b1.ID.Less(b2.ID) {
		expected = b1
	} else {
		expected = b2
	}
	assert.Equal(t, expected.ID, winner[0].ID)
}

func TestHighestConfidencePicksMax(t *testing.T) {
	now := time.Now()
	src := timesrc.NewAgentSource("a", "", "")
	low := mkBelief(t, 0.2, now, src)
	high := mkBelief(t, 0.9, now, src)

	winner, err := Resolve(HighestConfidence(), []belief.Belief{low, high})
	require.NoError(t, err)
	assert.Equal(t, high.ID, winner[0].ID)
}

func TestExplicitConflictReturnsAll(t *testing.T) {
	now := time.Now()
	src := timesrc.NewAgentSource("a", "", "")
	b1 := mkBelief(t, 0.2, now, src)
	b2 := mkBelief(t, 0.9, now, src)

	winners, err := Resolve(ExplicitConflict(), []belief.Belief{b1, b2})
	require.NoError(t, err)
	assert.Len(t, winners, 2)
}

func TestSourcePriorityFallsBackToLatestWins(t *testing.T) {
	now := time.Now()
	unrelated := timesrc.NewAgentSource("unrelated", "", "")
	other := timesrc.NewAgentSource("other", "", "")
	b1 := mkBelief(t, 0.2, now, unrelated)
	b2 := mkBelief(t, 0.9, now.Add(time.Second), other)

	list, err := NewSourcePriorityList([]timesrc.Source{timesrc.NewAgentSource("nonexistent", "", "")})
	require.NoError(t, err)

	winner, err := Resolve(SourcePriority(list), []belief.Belief{b1, b2})
	require.NoError(t, err)
	assert.Equal(t, b2.ID, winner[0].ID, "neither matches priority list, falls back to latest_wins")
}

func TestSourcePriorityPicksMatchingSource(t *testing.T) {
	now := time.Now()
	preferred := timesrc.NewAgentSource("preferred", "", "")
	other := timesrc.NewAgentSource("other", "", "")
	bPreferred := mkBelief(t, 0.1, now, preferred)
	bOther := mkBelief(t, 0.99, now, other)

	list, err := NewSourcePriorityList([]timesrc.Source{preferred, other})
	require.NoError(t, err)

	winner, err := Resolve(SourcePriority(list), []belief.Belief{bOther, bPreferred})
	require.NoError(t, err)
	assert.Equal(t, bPreferred.ID, winner[0].ID, "preferred source ranks first even with lower confidence")
}
