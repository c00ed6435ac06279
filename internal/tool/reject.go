package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// RejectTool rejects an invoice that is awaiting approval. A rejection
// reason is mandatory and is recorded in the invoice history.
type RejectTool struct {
	base
}

func NewRejectTool(s store.Store, logger *zap.Logger) *RejectTool {
	return &RejectTool{base{store: s, logger: logger}}
}

func (t *RejectTool) Name() string { return "reject_invoice" }

func (t *RejectTool) Description() string {
	return "Reject an invoice that is awaiting approval, with a reason"
}

func (t *RejectTool) Execute(ctx context.Context, invoiceID string, args Args) Result {
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		return Fail(
			"A reason is required to reject an invoice.",
			CodeMissingReason,
			map[string]any{"invoice_id": invoiceID},
		)
	}

	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	actor := args.ApproverID
	if actor == "" {
		actor = "system"
	}

	result, fail := t.applyAndSave(ctx, inv, lifecycle.TriggerReject, actor, reason)
	if fail != nil {
		return *fail
	}

	data := transitionData(result)
	data["reason"] = reason
	return OK(
		fmt.Sprintf("Invoice %s has been rejected. Reason: %s", invoiceID, reason),
		data,
	)
}
