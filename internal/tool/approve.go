package tool

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// ApproveTool approves an invoice that is awaiting approval.
type ApproveTool struct {
	base
}

func NewApproveTool(s store.Store, logger *zap.Logger) *ApproveTool {
	return &ApproveTool{base{store: s, logger: logger}}
}

func (t *ApproveTool) Name() string { return "approve_invoice" }

func (t *ApproveTool) Description() string {
	return "Approve an invoice that is awaiting approval"
}

func (t *ApproveTool) Execute(ctx context.Context, invoiceID string, args Args) Result {
	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	actor := args.ApproverID
	if actor == "" {
		actor = "system"
	}

	result, fail := t.applyAndSave(ctx, inv, lifecycle.TriggerApprove, actor, "")
	if fail != nil {
		return *fail
	}

	return OK(
		fmt.Sprintf("Invoice %s has been approved!", invoiceID),
		transitionData(result),
	)
}
