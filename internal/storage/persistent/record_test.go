package persistent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := EncodeRecord(KindBeliefAsserted, []byte(`{"hello":"world"}`))
	require.NoError(t, err)

	kind, payload, consumed, err := DecodeRecord(frame)
	require.NoError(t, err)
	assert.Equal(t, KindBeliefAsserted, kind)
	assert.Equal(t, `{"hello":"world"}`, string(payload))
	assert.Equal(t, len(frame), consumed)
}

func TestDecodeIncompleteRecord(t *testing.T) {
	frame, err := EncodeRecord(KindBeliefAsserted, []byte("payload"))
	require.NoError(t, err)

	_, _, _, err = DecodeRecord(frame[:len(frame)-2])
	assert.ErrorIs(t, err, ErrIncompleteRecord)
}

func TestDecodeCorruptRecord(t *testing.T) {
	frame, err := EncodeRecord(KindBeliefAsserted, []byte("payload"))
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0xFF

	_, _, _, err = DecodeRecord(frame)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestDecodeMultipleRecordsSequentially(t *testing.T) {
	f1, _ := EncodeRecord(KindBeliefAsserted, []byte("one"))
	f2, _ := EncodeRecord(KindBeliefRetracted, []byte("two"))
	buf := append(append([]byte{}, f1...), f2...)

	kind, payload, n, err := DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, KindBeliefAsserted, kind)
	assert.Equal(t, "one", string(payload))

	kind2, payload2, _, err := DecodeRecord(buf[n:])
	require.NoError(t, err)
	assert.Equal(t, KindBeliefRetracted, kind2)
	assert.Equal(t, "two", string(payload2))
}
