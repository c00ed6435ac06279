package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// DisputeTool opens a dispute on an approved, payment-pending, or paid
// invoice. A dispute reason is mandatory.
type DisputeTool struct {
	base
}

func NewDisputeTool(s store.Store, logger *zap.Logger) *DisputeTool {
	return &DisputeTool{base{store: s, logger: logger}}
}

func (t *DisputeTool) Name() string { return "create_dispute" }

func (t *DisputeTool) Description() string {
	return "Open a dispute on an invoice, with a reason"
}

func (t *DisputeTool) Execute(ctx context.Context, invoiceID string, args Args) Result {
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		return Fail(
			"A reason is required to open a dispute.",
			CodeMissingReason,
			map[string]any{"invoice_id": invoiceID},
		)
	}

	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	result, fail := t.applyAndSave(ctx, inv, lifecycle.TriggerDispute, "system", reason)
	if fail != nil {
		return *fail
	}

	data := transitionData(result)
	data["reason"] = reason
	return OK(
		fmt.Sprintf("A dispute has been opened for invoice %s. Reason: %s", invoiceID, reason),
		data,
	)
}
