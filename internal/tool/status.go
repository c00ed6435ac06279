package tool

import (
	"context"

	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// StatusTool reports the current state of an invoice without changing it.
type StatusTool struct {
	base
}

func NewStatusTool(s store.Store, logger *zap.Logger) *StatusTool {
	return &StatusTool{base{store: s, logger: logger}}
}

func (t *StatusTool) Name() string { return "get_invoice_status" }

func (t *StatusTool) Description() string {
	return "Get the current state and available actions for an invoice"
}

func (t *StatusTool) Execute(ctx context.Context, invoiceID string, _ Args) Result {
	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	state := inv.CurrentState()
	return OK(
		"Invoice "+invoiceID+" is currently in state '"+state.String()+"'.",
		map[string]any{
			"invoice_id":        inv.ID,
			"customer_id":       inv.CustomerID,
			"current_state":     state.String(),
			"is_terminal":       inv.IsTerminal(),
			"amount":            inv.Amount.String(),
			"currency":          inv.Currency,
			"available_actions": triggersToStrings(inv.AvailableTriggers()),
		},
	)
}
