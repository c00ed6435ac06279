package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a state is not a member of the enumeration
var ErrInvalidState = errors.New("invalid state")

// TransitionError is returned when a trigger is not legal from the current
// state. It carries enough context for callers to render an actionable
// message, including the triggers that would have been legal.
type TransitionError struct {
	InvoiceID    string
	CurrentState State
	Trigger      Trigger
	Terminal     bool
}

func (e *TransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("invoice %s: cannot transition from terminal state %q", e.InvoiceID, e.CurrentState)
	}
	return fmt.Sprintf("invoice %s: cannot execute %q from state %q (available triggers: %v)",
		e.InvoiceID, e.Trigger, e.CurrentState, TriggersFrom(e.CurrentState))
}

// AvailableTriggers returns the triggers that were legal when the error occurred
func (e *TransitionError) AvailableTriggers() []Trigger {
	return TriggersFrom(e.CurrentState)
}

// ToDetails converts the error to a structured map for audit entries and
// tool error payloads.
func (e *TransitionError) ToDetails() map[string]any {
	available := make([]string, 0)
	for _, t := range e.AvailableTriggers() {
		available = append(available, t.String())
	}
	return map[string]any{
		"invoice_id":         e.InvoiceID,
		"current_state":      e.CurrentState.String(),
		"attempted_trigger":  e.Trigger.String(),
		"terminal":           e.Terminal,
		"available_triggers": available,
	}
}
