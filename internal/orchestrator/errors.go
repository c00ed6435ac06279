package orchestrator

import (
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
)

// StateError reports an administrative trigger rejected by the state
// machine. Callers on this path get a typed error rather than a result
// envelope.
type StateError struct {
	InvoiceID       string
	CurrentState    lifecycle.State
	AttemptedAction lifecycle.Trigger
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invoice %s: cannot %s from state '%s'",
		e.InvoiceID, e.AttemptedAction, e.CurrentState)
}
