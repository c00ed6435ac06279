package lifecycle

// Transition is a single row of the static transition table.
type Transition struct {
	Trigger Trigger
	Source  State
	Dest    State
}

// Table is the full transition table. It is exhaustively enumerated and
// read-only: (source, trigger) is a pure function of destination, so two
// rows never share a source/trigger pair.
var Table = []Transition{
	// Normal flow
	{TriggerSendInvoice, StateNew, StateInvoiceSent},
	{TriggerRequestApproval, StateInvoiceSent, StateAwaitingApproval},
	{TriggerApprove, StateAwaitingApproval, StateApproved},
	{TriggerReject, StateAwaitingApproval, StateRejected},
	{TriggerRequestPayment, StateApproved, StatePaymentPending},
	{TriggerConfirmPayment, StatePaymentPending, StatePaid},

	// Closing
	{TriggerClose, StatePaid, StateClosed},
	{TriggerClose, StateRejected, StateClosed},

	// Dispute flow: disputes can be raised from multiple states
	{TriggerDispute, StateApproved, StateDisputed},
	{TriggerDispute, StatePaymentPending, StateDisputed},
	{TriggerDispute, StatePaid, StateDisputed},

	// Resolving a dispute reopens the approval gate before money moves
	// again, regardless of where the dispute was raised from.
	{TriggerResolveDispute, StateDisputed, StateAwaitingApproval},
}

type tableKey struct {
	source  State
	trigger Trigger
}

var tableIndex = buildIndex()

func buildIndex() map[tableKey]State {
	idx := make(map[tableKey]State, len(Table))
	for _, t := range Table {
		idx[tableKey{t.Source, t.Trigger}] = t.Dest
	}
	return idx
}

// Lookup returns the destination state for a (source, trigger) pair,
// and whether the pair is present in the table.
func Lookup(source State, trigger Trigger) (State, bool) {
	dest, ok := tableIndex[tableKey{source, trigger}]
	return dest, ok
}

// TriggersFrom returns the triggers legal from the given state, in table
// order. The result is empty for terminal states.
func TriggersFrom(source State) []Trigger {
	var triggers []Trigger
	for _, t := range Table {
		if t.Source != source {
			continue
		}
		seen := false
		for _, tr := range triggers {
			if tr == t.Trigger {
				seen = true
				break
			}
		}
		if !seen {
			triggers = append(triggers, t.Trigger)
		}
	}
	return triggers
}
