package tool

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// ResendTool re-delivers invoice details to the customer. Resending is a
// courtesy action: it never changes the invoice state and adds no history
// entry, but it is only meaningful while the invoice is in flight.
type ResendTool struct {
	base
}

func NewResendTool(s store.Store, logger *zap.Logger) *ResendTool {
	return &ResendTool{base{store: s, logger: logger}}
}

func (t *ResendTool) Name() string { return "resend_invoice" }

func (t *ResendTool) Description() string {
	return "Resend the invoice details to the customer"
}

var resendableStates = map[lifecycle.State]bool{
	lifecycle.StateInvoiceSent:      true,
	lifecycle.StateAwaitingApproval: true,
	lifecycle.StateApproved:         true,
	lifecycle.StatePaymentPending:   true,
}

func (t *ResendTool) Execute(ctx context.Context, invoiceID string, _ Args) Result {
	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	state := inv.CurrentState()
	if !resendableStates[state] {
		return Fail(
			fmt.Sprintf("Invoice %s cannot be resent in state '%s'.", invoiceID, state),
			CodeInvalidState,
			map[string]any{
				"invoice_id":    invoiceID,
				"current_state": state.String(),
			},
		)
	}

	return OK(
		fmt.Sprintf("Invoice %s has been resent to the customer.", invoiceID),
		map[string]any{
			"invoice_id":    invoiceID,
			"current_state": state.String(),
		},
	)
}
