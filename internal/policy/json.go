package policy

import (
	"encoding/json"
	"fmt"

	"github.com/kyrodb/kyroql/internal/timesrc"
)

type wirePolicy struct {
	Type     Kind             `json:"type"`
	Priority []timesrc.Source `json:"priority,omitempty"`
}

// MarshalJSON serializes Policy as a tagged object: {"type": "source_priority", "priority": [...]}.
// source_priority carries its deduplicated list; other variants carry no extra fields.
func (p Policy) MarshalJSON() ([]byte, error) {
	w := wirePolicy{Type: p.Kind}
	if p.Kind == KindSourcePriority {
		w.Priority = p.Priority.Sources()
	}
	return json.Marshal(w)
}

func (p *Policy) UnmarshalJSON(data []byte) error {
	var w wirePolicy
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case KindLatestWins:
		*p = LatestWins()
	case KindHighestConfidence, "":
		*p = HighestConfidence()
	case KindExplicitConflict:
		*p = ExplicitConflict()
	case KindSourcePriority:
		list, err := NewSourcePriorityList(w.Priority)
		if err != nil {
			return err
		}
		*p = SourcePriority(list)
	default:
		return fmt.Errorf("policy: unknown kind %q", w.Type)
	}
	return nil
}
