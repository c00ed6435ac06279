package lifecycle

// State represents an invoice state in the lifecycle
type State string

const (
	StateNew              State = "new"
	StateInvoiceSent      State = "invoice_sent"
	StateAwaitingApproval State = "awaiting_approval"
	StateApproved         State = "approved"
	StateRejected         State = "rejected"
	StatePaymentPending   State = "payment_pending"
	StatePaid             State = "paid"
	StateDisputed         State = "disputed"
	StateClosed           State = "closed"
)

var validStates = map[State]bool{
	StateNew:              true,
	StateInvoiceSent:      true,
	StateAwaitingApproval: true,
	StateApproved:         true,
	StateRejected:         true,
	StatePaymentPending:   true,
	StatePaid:             true,
	StateDisputed:         true,
	StateClosed:           true,
}

// closed is the only terminal state: no trigger is legal from it
var terminalStates = map[State]bool{
	StateClosed: true,
}

// AllStates returns every valid state in a stable order
func AllStates() []State {
	return []State{
		StateNew,
		StateInvoiceSent,
		StateAwaitingApproval,
		StateApproved,
		StateRejected,
		StatePaymentPending,
		StatePaid,
		StateDisputed,
		StateClosed,
	}
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
