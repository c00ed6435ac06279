package tool

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// ConfirmPaymentTool marks a pending payment as received. When the
// invoice is not in payment_pending, the failure message carries a
// state-specific hint explaining which step comes next.
type ConfirmPaymentTool struct {
	base
}

func NewConfirmPaymentTool(s store.Store, logger *zap.Logger) *ConfirmPaymentTool {
	return &ConfirmPaymentTool{base{store: s, logger: logger}}
}

func (t *ConfirmPaymentTool) Name() string { return "confirm_payment" }

func (t *ConfirmPaymentTool) Description() string {
	return "Confirm that payment has been received for an invoice"
}

// stateHints guides the caller toward the step that unblocks payment
// confirmation from the given state.
var stateHints = map[lifecycle.State]string{
	lifecycle.StateAwaitingApproval: "The invoice must be approved first.",
	lifecycle.StateApproved:         "Payment must be requested first.",
	lifecycle.StatePaid:             "Payment has already been confirmed.",
}

func (t *ConfirmPaymentTool) Execute(ctx context.Context, invoiceID string, args Args) Result {
	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	state := inv.CurrentState()
	if state != lifecycle.StatePaymentPending {
		msg := fmt.Sprintf("Cannot confirm payment for invoice %s in state '%s'.", invoiceID, state)
		if hint, ok := stateHints[state]; ok {
			msg += " " + hint
		}
		return Fail(msg, CodeInvalidState, map[string]any{
			"invoice_id":    invoiceID,
			"current_state": state.String(),
		})
	}

	actor := "system"
	reason := ""
	if args.PaymentReference != "" {
		reason = "payment_reference=" + args.PaymentReference
	}

	result, fail := t.applyAndSave(ctx, inv, lifecycle.TriggerConfirmPayment, actor, reason)
	if fail != nil {
		return *fail
	}

	data := transitionData(result)
	if args.PaymentReference != "" {
		data["payment_reference"] = args.PaymentReference
	}
	if args.PaymentMethod != "" {
		data["payment_method"] = args.PaymentMethod
	}
	return OK(
		fmt.Sprintf("Payment confirmed for invoice %s. Thank you!", invoiceID),
		data,
	)
}
