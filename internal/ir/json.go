package ir

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON flattens the active payload alongside its type tag, producing
// the {"type": "assert", ...} shape of spec.md §6's wire contract. Only the
// active payload is encoded, so fields that share a JSON name across
// payload types (entity_id, predicate, rule, description) are kept.
func (op Operation) MarshalJSON() ([]byte, error) {
	payloads := map[OpType]any{OpAssert: op.Assert, OpResolve: op.Resolve, OpRetract: op.Retract,
		OpDefinePattern: op.DefinePattern, OpSimulate: op.Simulate, OpMonitor: op.Monitor, OpDerive: op.Derive}
	raw, err := json.Marshal(payloads[op.Type])
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if string(raw) != "null" {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}
	fields["type"], _ = json.Marshal(op.Type)
	return json.Marshal(fields)
}

// UnmarshalJSON reads the type tag, then unmarshals the same bytes again
// into the one matching payload type.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type OpType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag.Type {
	case OpAssert:
		var p AssertPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = Assert(p)
	case OpResolve:
		var p ResolvePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = Resolve(p)
	case OpRetract:
		var p RetractPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = Retract(p)
	case OpDefinePattern:
		var p DefinePatternPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = DefinePattern(p)
	case OpSimulate:
		var p SimulatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = Simulate(p)
	case OpMonitor:
		var p MonitorPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = Monitor(p)
	case OpDerive:
		var p DerivePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*op = Derive(p)
	default:
		return fmt.Errorf("ir: unknown operation type %q", tag.Type)
	}
	return nil
}
