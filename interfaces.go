// Package kyroql is the public API for embedding KyroQL's belief store.
//
// Callers construct an Engine, then execute IR operations against it:
//
//	engine, err := kyroql.Open("./data",
//	    kyroql.WithLogger(logger),
//	    kyroql.WithOTELEndpoint(endpoint),
//	)
//	if err != nil { ... }
//	defer engine.Close()
//
//	op, _ := ir.NewAssertBuilder(entityID, "likes", value.OfString("coffee"), 0.9, source).Build()
//	result, err := engine.Execute(ctx, op)
//
// The import graph enforces a strict no-cycle rule: kyroql (root) imports
// internal/*, but internal/* never imports kyroql (root).
package kyroql

import (
	"github.com/kyrodb/kyroql/internal/ids"
)

// EmbeddingProvider computes a vector representation of the query text of
// RESOLVE operations that don't supply their own query embedding. ASSERT
// does not call it: a belief stores only the embedding its payload carries.
// The default is the deterministic lexical fallback (internal/embedding); a
// caller can swap in a model-backed provider via WithEmbeddingProvider.
type EmbeddingProvider interface {
	Embed(text string) ([]float32, error)
}

// PatternEvaluator decides whether a stored pattern is currently violated
// for a given entity. KyroQL ships no built-in rule engine (the
// pattern-matching engine is an out-of-scope collaborator). An evaluator
// passed with WithPatternEvaluator is kept on the Engine, but Execute does
// not call it: no operation evaluates stored patterns, so Execute never
// emits an Observation that a pattern_violation trigger matches.
// DEFINE_PATTERN stores the definition either way.
type PatternEvaluator interface {
	Evaluate(patternID ids.PatternId, rule string, entityID ids.EntityId) (violated bool, err error)
}

// EventHook is notified of every successfully committed ASSERT, after
// durability but independent of monitor trigger delivery; the other
// operations do not notify hooks. It is useful for
// external indexing, audit export, or metrics outside KyroQL's own OTEL
// instrumentation. Multiple hooks may be registered via multiple
// WithEventHook calls; hook methods run synchronously on the commit path
// and must not block indefinitely.
type EventHook interface {
	OnCommitted(op string, entityID ids.EntityId)
}
