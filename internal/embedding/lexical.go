// Package embedding provides the deterministic lexical embedding fallback
// used when an operation needs a vector but the caller supplied only text
// (spec.md §4.2 ResolvePayload, §4.9 of SPEC_FULL.md). It is a pure
// function: the same input always yields the same vector, with no network
// access and no randomness — the boundary of the "deterministic lexical
// fallback" the spec's embedding non-goal carves out.
package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Dimensions is the fixed length of a lexical embedding vector.
const Dimensions = 256

// Lexical computes a deterministic bag-of-tokens embedding of text using
// the standard feature-hashing trick: each token is hashed into a bucket
// with a hash-derived sign, then the result is L2-normalized.
func Lexical(text string) []float32 {
	vec := make([]float32, Dimensions)
	for _, token := range tokenize(text) {
		bucket, sign := hashToken(token)
		vec[bucket] += sign
	}
	normalize(vec)
	return vec
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func hashToken(token string) (int, float32) {
	h1 := fnv.New32a()
	_, _ = h1.Write([]byte(token))
	bucket := int(h1.Sum32() % Dimensions)

	h2 := fnv.New32()
	_, _ = h2.Write([]byte(token))
	sign := float32(1)
	if h2.Sum32()%2 == 0 {
		sign = -1
	}
	return bucket, sign
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
