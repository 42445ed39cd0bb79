package belief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyrodb/kyroql/internal/confidence"
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/timesrc"
	"github.com/kyrodb/kyroql/internal/value"
)

func TestNewRejectsEmptyPredicate(t *testing.T) {
	conf, _ := confidence.FromAgent(0.9, "a")
	now := time.Now()
	_, err := New(ids.NewEntityId(), "   ", value.OfBool(true), conf,
		timesrc.NewAgentSource("a", "", ""), timesrc.FromNow(now), now, nil, "")
	require.Error(t, err)
}

func TestNewTrimsPredicate(t *testing.T) {
	conf, _ := confidence.FromAgent(0.9, "a")
	now := time.Now()
	b, err := New(ids.NewEntityId(), "  likes  ", value.OfBool(true), conf,
		timesrc.NewAgentSource("a", "", ""), timesrc.FromNow(now), now, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "likes", b.Predicate)
	assert.Equal(t, ConsistencyEventual, b.ConsistencyMode)
}

func TestNewRejectsEmptyEmbedding(t *testing.T) {
	conf, _ := confidence.FromAgent(0.9, "a")
	now := time.Now()
	_, err := New(ids.NewEntityId(), "likes", value.OfBool(true), conf,
		timesrc.NewAgentSource("a", "", ""), timesrc.FromNow(now), now, []float32{}, "")
	require.Error(t, err)
}

func TestNewRejectsInvertedValidTime(t *testing.T) {
	conf, _ := confidence.FromAgent(0.9, "a")
	now := time.Now()
	vt := timesrc.TimeRange{From: now, To: now.Add(-time.Hour)}
	_, err := New(ids.NewEntityId(), "likes", value.OfBool(true), conf,
		timesrc.NewAgentSource("a", "", ""), vt, now, nil, "")
	require.Error(t, err)
}
