package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// ResolveDisputeTool settles an open dispute. Resolution returns the
// invoice to awaiting_approval so the approval gate runs again.
type ResolveDisputeTool struct {
	base
}

func NewResolveDisputeTool(s store.Store, logger *zap.Logger) *ResolveDisputeTool {
	return &ResolveDisputeTool{base{store: s, logger: logger}}
}

func (t *ResolveDisputeTool) Name() string { return "resolve_dispute" }

func (t *ResolveDisputeTool) Description() string {
	return "Resolve an open dispute on an invoice, with a resolution note"
}

func (t *ResolveDisputeTool) Execute(ctx context.Context, invoiceID string, args Args) Result {
	resolution := strings.TrimSpace(args.Resolution)
	if resolution == "" {
		return Fail(
			"A resolution is required to resolve a dispute.",
			CodeMissingResolution,
			map[string]any{"invoice_id": invoiceID},
		)
	}

	inv, fail := t.load(ctx, invoiceID)
	if fail != nil {
		return *fail
	}

	state := inv.CurrentState()
	if state != lifecycle.StateDisputed {
		return Fail(
			fmt.Sprintf("Invoice %s has no open dispute (state '%s').", invoiceID, state),
			CodeNotDisputed,
			map[string]any{
				"invoice_id":    invoiceID,
				"current_state": state.String(),
			},
		)
	}

	result, fail := t.applyAndSave(ctx, inv, lifecycle.TriggerResolveDispute, "system", resolution)
	if fail != nil {
		return *fail
	}

	data := transitionData(result)
	data["resolution"] = resolution
	return OK(
		fmt.Sprintf("The dispute on invoice %s has been resolved: %s", invoiceID, resolution),
		data,
	)
}
