package monitor

import (
	"github.com/kyrodb/kyroql/internal/ids"
	"github.com/kyrodb/kyroql/internal/ir"
)

// Event is what a matched subscription receives: the trigger that fired
// plus the observation that fired it.
type Event struct {
	SubscriptionID ids.SubscriptionId
	Trigger        ir.Trigger
	Observation    Observation
}
