package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexicalIsDeterministic(t *testing.T) {
	a := Lexical("the quick brown fox")
	b := Lexical("the quick brown fox")
	assert.Equal(t, a, b)
}

func TestLexicalHasFixedDimension(t *testing.T) {
	v := Lexical("hello world")
	assert.Len(t, v, Dimensions)
}

func TestLexicalDiffersForDifferentText(t *testing.T) {
	a := Lexical("cats are great")
	b := Lexical("dogs are great")
	assert.NotEqual(t, a, b)
}

func TestLexicalIsNormalized(t *testing.T) {
	v := Lexical("some nonempty text here")
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-6)
}

func TestLexicalOfEmptyStringIsZeroVector(t *testing.T) {
	v := Lexical("")
	for _, x := range v {
		assert.Equal(t, float32(0), x)
	}
}
