// Package tool implements the validated business actions, one unit per
// trigger. Each tool checks action-specific preconditions beyond pure
// state legality, applies the transition through the invoice aggregate,
// and returns a uniform structured result.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// Args carries the optional per-action inputs extracted from a routing
// decision or an HTTP request body.
type Args struct {
	ApproverID       string `json:"approver_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
}

// Tool is a single validated business action
type Tool interface {
	// Name is the tool's registry name, e.g. "approve_invoice"
	Name() string

	// Description tells the router when to recommend the tool
	Description() string

	// Execute performs the action. Business-rule violations surface as
	// failure results, never as errors or panics.
	Execute(ctx context.Context, invoiceID string, args Args) Result
}

// Run executes a tool with panic containment: unexpected failures become
// INTERNAL_ERROR results instead of propagating past the tool boundary.
func Run(ctx context.Context, t Tool, invoiceID string, args Args, logger *zap.Logger) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Tool panicked",
				zap.String("tool", t.Name()),
				zap.String("invoice_id", invoiceID),
				zap.Any("panic", r))
			result = Fail(
				fmt.Sprintf("Unexpected error: %v", r),
				CodeInternalError,
				map[string]any{"tool": t.Name()},
			)
		}
	}()

	logger.Debug("Executing tool",
		zap.String("tool", t.Name()),
		zap.String("invoice_id", invoiceID))

	return t.Execute(ctx, invoiceID, args)
}

// base holds the dependencies shared by all tools
type base struct {
	store  store.Store
	logger *zap.Logger
}

func (b base) load(ctx context.Context, invoiceID string) (*lifecycle.Invoice, *Result) {
	inv, err := b.store.Get(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r := Fail(
				fmt.Sprintf("Invoice '%s' not found", invoiceID),
				CodeInvoiceNotFound,
				map[string]any{"invoice_id": invoiceID},
			)
			return nil, &r
		}
		r := Fail(
			fmt.Sprintf("Failed to load invoice '%s': %v", invoiceID, err),
			CodeInternalError,
			map[string]any{"invoice_id": invoiceID},
		)
		return nil, &r
	}
	return inv, nil
}

// applyAndSave performs the transition and persists the invoice. The
// caller has already validated preconditions; any remaining transition
// error is converted to an INVALID_STATE failure.
func (b base) applyAndSave(ctx context.Context, inv *lifecycle.Invoice, trigger lifecycle.Trigger, actor, reason string) (*lifecycle.TransitionResult, *Result) {
	result, err := inv.Apply(trigger, actor, reason)
	if err != nil {
		var terr *lifecycle.TransitionError
		if errors.As(err, &terr) {
			r := Fail(terr.Error(), CodeInvalidState, terr.ToDetails())
			return nil, &r
		}
		r := Fail(err.Error(), CodeInternalError, nil)
		return nil, &r
	}

	if err := b.store.Save(ctx, inv); err != nil {
		b.logger.Error("Failed to save invoice",
			zap.String("invoice_id", inv.ID),
			zap.Error(err))
		r := Fail(
			fmt.Sprintf("Failed to persist invoice '%s'", inv.ID),
			CodeInternalError,
			map[string]any{"invoice_id": inv.ID},
		)
		return nil, &r
	}

	return result, nil
}

func transitionData(result *lifecycle.TransitionResult) map[string]any {
	return map[string]any{
		"invoice_id":     result.InvoiceID,
		"trigger":        result.Trigger.String(),
		"previous_state": result.PreviousState.String(),
		"current_state":  result.CurrentState.String(),
	}
}

func triggersToStrings(triggers []lifecycle.Trigger) []string {
	out := make([]string, len(triggers))
	for i, t := range triggers {
		out[i] = t.String()
	}
	return out
}
