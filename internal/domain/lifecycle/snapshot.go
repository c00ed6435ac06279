package lifecycle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the plain serializable representation of an invoice used
// for storage handoff. No particular byte format is mandated; JSON tags
// are provided for convenience.
type Snapshot struct {
	InvoiceID    string          `json:"invoice_id"`
	CustomerID   string          `json:"customer_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	DueDate      time.Time       `json:"due_date"`
	CurrentState State           `json:"current_state"`
	IsTerminal   bool            `json:"is_terminal"`
	History      []HistoryEntry  `json:"history"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Snapshot converts the invoice to its persisted representation
func (inv *Invoice) Snapshot() Snapshot {
	history := make([]HistoryEntry, len(inv.History))
	copy(history, inv.History)
	return Snapshot{
		InvoiceID:    inv.ID,
		CustomerID:   inv.CustomerID,
		Amount:       inv.Amount,
		Currency:     inv.Currency,
		DueDate:      inv.DueDate,
		CurrentState: inv.State,
		IsTerminal:   inv.IsTerminal(),
		History:      history,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

// FromSnapshot reconstructs an invoice from its persisted representation,
// preserving state and history ordering.
func FromSnapshot(s Snapshot) (*Invoice, error) {
	if !s.CurrentState.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, s.CurrentState)
	}
	history := make([]HistoryEntry, len(s.History))
	copy(history, s.History)
	return &Invoice{
		ID:         s.InvoiceID,
		CustomerID: s.CustomerID,
		Amount:     s.Amount,
		Currency:   s.Currency,
		DueDate:    s.DueDate,
		State:      s.CurrentState,
		History:    history,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}, nil
}
