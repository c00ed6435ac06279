package lifecycle

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEntry records a single transition. The first entry of every
// invoice is synthetic: trigger "initialized" with an empty source.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Source    State     `json:"source,omitempty"`
	Dest      State     `json:"dest"`
	Trigger   Trigger   `json:"trigger"`
	Actor     string    `json:"actor,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// Invoice is the lifecycle aggregate. State is only mutated through Apply;
// history is append-only.
type Invoice struct {
	ID         string          `json:"invoice_id"`
	CustomerID string          `json:"customer_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	DueDate    time.Time       `json:"due_date"`
	State      State           `json:"state"`
	History    []HistoryEntry  `json:"history"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TransitionResult describes a successfully applied transition
type TransitionResult struct {
	InvoiceID     string  `json:"invoice_id"`
	Trigger       Trigger `json:"trigger"`
	PreviousState State   `json:"previous_state"`
	CurrentState  State   `json:"current_state"`
}

// NewInvoice creates an invoice in the initial state and records the
// synthetic first history entry.
func NewInvoice(id, customerID string) *Invoice {
	now := time.Now().UTC()
	return &Invoice{
		ID:         id,
		CustomerID: customerID,
		Currency:   "USD",
		State:      StateNew,
		History: []HistoryEntry{{
			Timestamp: now,
			Dest:      StateNew,
			Trigger:   TriggerInitialized,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentState returns the current state
func (inv *Invoice) CurrentState() State {
	return inv.State
}

// IsTerminal returns true if the invoice can no longer transition
func (inv *Invoice) IsTerminal() bool {
	return inv.State.IsTerminal()
}

// AvailableTriggers returns the triggers legal from the current state
func (inv *Invoice) AvailableTriggers() []Trigger {
	return TriggersFrom(inv.State)
}

// CanTrigger returns true if the trigger is legal from the current state
func (inv *Invoice) CanTrigger(trigger Trigger) bool {
	_, ok := Lookup(inv.State, trigger)
	return ok
}

// Apply executes a transition. It fails with *TransitionError when the
// invoice is terminal or when no table row matches (current state,
// trigger). On success it appends exactly one history entry.
func (inv *Invoice) Apply(trigger Trigger, actor, reason string) (*TransitionResult, error) {
	if inv.IsTerminal() {
		return nil, &TransitionError{
			InvoiceID:    inv.ID,
			CurrentState: inv.State,
			Trigger:      trigger,
			Terminal:     true,
		}
	}

	dest, ok := Lookup(inv.State, trigger)
	if !ok {
		return nil, &TransitionError{
			InvoiceID:    inv.ID,
			CurrentState: inv.State,
			Trigger:      trigger,
		}
	}

	previous := inv.State
	now := time.Now().UTC()

	inv.State = dest
	inv.UpdatedAt = now
	inv.History = append(inv.History, HistoryEntry{
		Timestamp: now,
		Source:    previous,
		Dest:      dest,
		Trigger:   trigger,
		Actor:     actor,
		Reason:    reason,
	})

	return &TransitionResult{
		InvoiceID:     inv.ID,
		Trigger:       trigger,
		PreviousState: previous,
		CurrentState:  dest,
	}, nil
}

// Clone returns a deep copy of the invoice. Stores hand out clones so
// callers can never mutate persisted state directly.
func (inv *Invoice) Clone() *Invoice {
	cp := *inv
	cp.History = make([]HistoryEntry, len(inv.History))
	copy(cp.History, inv.History)
	return &cp
}
