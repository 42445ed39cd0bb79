package value

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kyrodb/kyroql/internal/ids"
)

func TestRoundTrip(t *testing.T) {
	values := []Value{
		OfBool(true),
		OfInt(42),
		OfFloat(3.14),
		OfString("hello"),
		OfEntityRef(ids.NewEntityId()),
		OfEmbedding([]float32{1, 2, 3}),
		OfJSON(map[string]any{"a": float64(1)}),
		Null(),
	}

	for _, v := range values {
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var got Value
		require.NoError(t, json.Unmarshal(data, &got))

		// Re-serialize and compare documents structurally (spec property #3).
		data2, err := json.Marshal(got)
		require.NoError(t, err)

		var a, b any
		require.NoError(t, json.Unmarshal(data, &a))
		require.NoError(t, json.Unmarshal(data2, &b))
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("round trip mismatch for kind %s (-want +got):\n%s", v.Kind(), diff)
		}
	}
}

func TestNullHasNoValueField(t *testing.T) {
	data, err := json.Marshal(Null())
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	_, hasValue := m["value"]
	require.False(t, hasValue)
}

func TestValidEmbeddingLength(t *testing.T) {
	require.False(t, ValidEmbeddingLength(0))
	require.True(t, ValidEmbeddingLength(1))
	require.True(t, ValidEmbeddingLength(8192))
	require.False(t, ValidEmbeddingLength(8193))
}
