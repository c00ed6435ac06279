package event

import "github.com/garyjia/invoice-automation/internal/domain/lifecycle"

type statePair struct {
	previous lifecycle.State
	current  lifecycle.State
}

// transitionEvents maps (previous, current) state pairs to the event type
// fired after a successful transition. Pairs absent from the map fire no
// event; such transitions are still always audited.
var transitionEvents = map[statePair]Type{
	{lifecycle.StateAwaitingApproval, lifecycle.StateApproved}: TypeInvoiceApproved,
	{lifecycle.StatePaymentPending, lifecycle.StatePaid}:       TypeInvoicePaid,
	{lifecycle.StatePaid, lifecycle.StateClosed}:               TypeInvoiceClosed,
	{lifecycle.StateRejected, lifecycle.StateClosed}:           TypeInvoiceClosed,
	{lifecycle.StateApproved, lifecycle.StateDisputed}:         TypeInvoiceDisputed,
	{lifecycle.StatePaymentPending, lifecycle.StateDisputed}:   TypeInvoiceDisputed,
	{lifecycle.StatePaid, lifecycle.StateDisputed}:             TypeInvoiceDisputed,
}

// Derive returns the event type for a transition pair, if any
func Derive(previous, current lifecycle.State) (Type, bool) {
	t, ok := transitionEvents[statePair{previous, current}]
	return t, ok
}

// FromTransition builds the event for a successful transition, or nil if
// the pair has no mapping.
func FromTransition(invoiceID, customerID string, previous, current lifecycle.State) *Event {
	eventType, ok := Derive(previous, current)
	if !ok {
		return nil
	}
	return New(eventType, invoiceID, customerID, map[string]any{
		"previous_state": previous.String(),
		"current_state":  current.String(),
	})
}
