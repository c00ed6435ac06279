package tool

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// CloseTool closes a paid or rejected invoice. Closing is permanent.
type CloseTool struct {
	base
}

func NewCloseTool(s store.Store, logger *zap.Logger) *CloseTool {
	return &CloseTool{base{store: s, logger: logger}}
}

func (t *CloseTool) Name() string { return "close_invoice" }

func (t *CloseTool) Description() string {
	return "Close a paid or rejected invoice permanently"
}

func (t *CloseTool) Execute(ctx context.Context, invoiceID string, _ Args) Result {
	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	if !inv.CanTrigger(lifecycle.TriggerClose) {
		state := inv.CurrentState()
		return Fail(
			fmt.Sprintf("Invoice %s cannot be closed from state '%s'.", invoiceID, state),
			CodeInvalidState,
			map[string]any{
				"invoice_id":        invoiceID,
				"current_state":     state.String(),
				"available_actions": triggersToStrings(inv.AvailableTriggers()),
			},
		)
	}

	result, fail := t.applyAndSave(ctx, inv, lifecycle.TriggerClose, "system", "")
	if fail != nil {
		return *fail
	}

	return OK(
		fmt.Sprintf("Invoice %s has been closed.", invoiceID),
		transitionData(result),
	)
}
