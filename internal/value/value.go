// Package value implements KyroQL's tagged value kernel: the closed sum
// type a belief's attribute value can take (bool, int, float, string,
// entity reference, embedding, arbitrary JSON, or null).
//
// Values are modeled as a tagged struct rather than a Go interface so that
// JSON round-tripping is exact: decoding a wire document and re-encoding it
// yields a structurally identical document (spec property #3).
package value

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kyrodb/kyroql/internal/ids"
)

// Kind discriminates the Value variants.
type Kind string

const (
	KindBool      Kind = "bool"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindString    Kind = "string"
	KindEntityRef Kind = "entity_ref"
	KindEmbedding Kind = "embedding"
	KindJSON      Kind = "json"
	KindNull      Kind = "null"
)

// Value is a closed tagged union. Construct with the Of* helpers; inspect
// with Kind() plus the As* accessors, or type-switch is not applicable
// since this is a struct, not an interface — use the Kind() discriminator.
type Value struct {
	kind      Kind
	boolV     bool
	intV      int64
	floatV    float64
	stringV   string
	entityRef ids.EntityId
	embedding []float32
	jsonV     any
}

func OfBool(b bool) Value         { return Value{kind: KindBool, boolV: b} }
func OfInt(i int64) Value         { return Value{kind: KindInt, intV: i} }
func OfFloat(f float64) Value     { return Value{kind: KindFloat, floatV: f} }
func OfString(s string) Value     { return Value{kind: KindString, stringV: s} }
func OfEntityRef(e ids.EntityId) Value { return Value{kind: KindEntityRef, entityRef: e} }
func OfEmbedding(v []float32) Value { return Value{kind: KindEmbedding, embedding: v} }
func OfJSON(v any) Value          { return Value{kind: KindJSON, jsonV: v} }
func Null() Value                 { return Value{kind: KindNull} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool)       { return v.boolV, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.intV, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.floatV, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.stringV, v.kind == KindString }
func (v Value) AsEntityRef() (ids.EntityId, bool) {
	return v.entityRef, v.kind == KindEntityRef
}
func (v Value) AsEmbedding() ([]float32, bool) { return v.embedding, v.kind == KindEmbedding }
func (v Value) AsJSON() (any, bool)            { return v.jsonV, v.kind == KindJSON }

// wireValue mirrors the {"type": ..., "value": ...} wire shape from spec.md
// §6. The null variant carries no "value" field.
type wireValue struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Type: v.kind}
	var payload any
	switch v.kind {
	case KindBool:
		payload = v.boolV
	case KindInt:
		payload = v.intV
	case KindFloat:
		payload = v.floatV
	case KindString:
		payload = v.stringV
	case KindEntityRef:
		payload = v.entityRef
	case KindEmbedding:
		payload = v.embedding
	case KindJSON:
		payload = v.jsonV
	case KindNull:
		return json.Marshal(w)
	default:
		return nil, fmt.Errorf("value: unknown kind %q", v.kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("value: marshal payload: %w", err)
	}
	w.Value = raw
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("value: unmarshal envelope: %w", err)
	}
	switch w.Type {
	case KindBool:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return err
		}
		*v = OfBool(b)
	case KindInt:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return err
		}
		*v = OfInt(i)
	case KindFloat:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return err
		}
		*v = OfFloat(f)
	case KindString:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		*v = OfString(s)
	case KindEntityRef:
		var e ids.EntityId
		if err := json.Unmarshal(w.Value, &e); err != nil {
			return err
		}
		*v = OfEntityRef(e)
	case KindEmbedding:
		var emb []float32
		if err := json.Unmarshal(w.Value, &emb); err != nil {
			return err
		}
		*v = OfEmbedding(emb)
	case KindJSON:
		var j any
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &j); err != nil {
				return err
			}
		}
		*v = OfJSON(j)
	case KindNull:
		*v = Null()
	default:
		return fmt.Errorf("value: unknown kind %q", w.Type)
	}
	return nil
}

// ValidEmbeddingLength reports whether n falls in the [1, 8192] range
// mandated for any present embedding (belief, resolve query, etc).
func ValidEmbeddingLength(n int) bool {
	return n >= 1 && n <= 8192
}

// IsFiniteFloat reports whether f is usable as a Value payload (not NaN or
// +/-Inf); used by callers that accept arbitrary float64 input.
func IsFiniteFloat(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
