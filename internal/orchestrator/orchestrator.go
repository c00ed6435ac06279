// Package orchestrator is the single entry point for invoice lifecycle
// operations. It serializes work per invoice, delegates validation to the
// tool layer, and fans out audit entries and domain events after every
// state change.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/domain/event"
	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"github.com/garyjia/invoice-automation/internal/tool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Context carries the caller identity for an operation.
type Context struct {
	CustomerID string
	SessionID  string
	Actor      string
	Args       tool.Args
}

// Result is the outcome envelope returned by the tool-mediated path.
type Result struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Code          tool.Code       `json:"code,omitempty"`
	InvoiceID     string          `json:"invoice_id"`
	PreviousState lifecycle.State `json:"previous_state,omitempty"`
	CurrentState  lifecycle.State `json:"current_state,omitempty"`
	EventsFired   []event.Type    `json:"events_fired,omitempty"`
	Data          map[string]any  `json:"data,omitempty"`
}

// Orchestrator wires the store, tool set, event bus, and audit log.
type Orchestrator struct {
	store  store.Store
	bus    *bus.Bus
	audit  *audit.Log
	tools  *tool.Registry
	logger *zap.Logger
	locks  *invoiceLocks
}

func New(s store.Store, b *bus.Bus, a *audit.Log, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:  s,
		bus:    b,
		audit:  a,
		tools:  tool.NewRegistry(s, logger),
		logger: logger,
		locks:  newInvoiceLocks(),
	}
}

// CreateParams holds the optional billing details for a new invoice.
type CreateParams struct {
	Amount   decimal.Decimal
	Currency string
	DueDate  time.Time
}

// CreateInvoice registers a new invoice in state 'new' and fires
// invoice_created.
func (o *Orchestrator) CreateInvoice(ctx context.Context, invoiceID, customerID string) (*lifecycle.Snapshot, error) {
	return o.CreateInvoiceWithParams(ctx, invoiceID, customerID, CreateParams{})
}

// CreateInvoiceWithParams registers a new invoice with billing details.
func (o *Orchestrator) CreateInvoiceWithParams(ctx context.Context, invoiceID, customerID string, params CreateParams) (*lifecycle.Snapshot, error) {
	m := o.locks.lock(invoiceID)
	defer m.Unlock()

	inv, err := o.store.Create(ctx, invoiceID, customerID)
	if err != nil {
		return nil, err
	}

	if !params.Amount.IsZero() || params.Currency != "" || !params.DueDate.IsZero() {
		if !params.Amount.IsZero() {
			inv.Amount = params.Amount
		}
		if params.Currency != "" {
			inv.Currency = params.Currency
		}
		if !params.DueDate.IsZero() {
			inv.DueDate = params.DueDate
		}
		if err := o.store.Save(ctx, inv); err != nil {
			return nil, fmt.Errorf("save invoice %s: %w", invoiceID, err)
		}
	}

	o.logger.Info("Invoice created",
		zap.String("invoice_id", invoiceID),
		zap.String("customer_id", customerID))

	evt := event.New(event.TypeInvoiceCreated, invoiceID, customerID, map[string]any{
		"customer_id": customerID,
	})
	o.bus.Publish(ctx, evt)

	snap := inv.Snapshot()
	return &snap, nil
}

// Execute runs the trigger through its tool when one is registered, or
// applies it directly for administrative triggers. All outcomes are
// audited; failures come back as results, not errors.
func (o *Orchestrator) Execute(ctx context.Context, invoiceID string, trigger lifecycle.Trigger, opCtx Context) Result {
	m := o.locks.lock(invoiceID)
	defer m.Unlock()

	previous := o.peekState(ctx, invoiceID)

	var res tool.Result
	var toolName string
	if t, ok := o.tools.ForTrigger(trigger); ok {
		toolName = t.Name()
		res = tool.Run(ctx, t, invoiceID, opCtx.Args, o.logger)
	} else {
		toolName = trigger.String()
		res = o.applyDirect(ctx, invoiceID, trigger, opCtx)
	}

	return o.finish(ctx, invoiceID, toolName, trigger.String(), previous, opCtx, res)
}

// ExecuteTool runs a tool by registry name. Read-only tools such as
// get_invoice_status and resend_invoice are only reachable here.
func (o *Orchestrator) ExecuteTool(ctx context.Context, toolName, invoiceID string, opCtx Context) Result {
	t, ok := o.tools.Get(toolName)
	if !ok {
		o.audit.LogError("unknown_tool", fmt.Sprintf("no tool named '%s'", toolName), invoiceID)
		return Result{
			Success:   false,
			Message:   fmt.Sprintf("Unknown tool '%s'", toolName),
			Code:      tool.CodeInternalError,
			InvoiceID: invoiceID,
		}
	}

	m := o.locks.lock(invoiceID)
	defer m.Unlock()

	previous := o.peekState(ctx, invoiceID)
	res := tool.Run(ctx, t, invoiceID, opCtx.Args, o.logger)

	transitionLabel := toolName
	if trigger, ok := tool.TriggerFor(toolName); ok {
		transitionLabel = trigger.String()
	}
	return o.finish(ctx, invoiceID, toolName, transitionLabel, previous, opCtx, res)
}

// Advance applies an administrative trigger directly, bypassing tool
// validation. Illegal transitions return a *StateError.
func (o *Orchestrator) Advance(ctx context.Context, invoiceID string, trigger lifecycle.Trigger) (*lifecycle.TransitionResult, error) {
	m := o.locks.lock(invoiceID)
	defer m.Unlock()

	inv, err := o.store.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	result, err := inv.Apply(trigger, "system", "")
	if err != nil {
		var terr *lifecycle.TransitionError
		if errors.As(err, &terr) {
			o.audit.LogBlockedAction(trigger.String(), terr.Error(), invoiceID, terr.CurrentState.String())
			return nil, &StateError{
				InvoiceID:       invoiceID,
				CurrentState:    terr.CurrentState,
				AttemptedAction: trigger,
			}
		}
		return nil, err
	}

	if err := o.store.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice %s: %w", invoiceID, err)
	}

	o.audit.LogStateTransition(
		result.PreviousState.String(), result.CurrentState.String(),
		trigger.String(), invoiceID)
	o.fireTransitionEvent(ctx, inv.CustomerID, result, Context{})

	return result, nil
}

// InvoiceState returns a read-only snapshot of the invoice.
func (o *Orchestrator) InvoiceState(ctx context.Context, invoiceID string) (*lifecycle.Snapshot, error) {
	inv, err := o.store.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	snap := inv.Snapshot()
	return &snap, nil
}

// ListInvoices returns snapshots for all invoices, optionally filtered
// to a single state.
func (o *Orchestrator) ListInvoices(ctx context.Context, stateFilter lifecycle.State) ([]lifecycle.Snapshot, error) {
	ids, err := o.store.List(ctx)
	if err != nil {
		return nil, err
	}

	snaps := make([]lifecycle.Snapshot, 0, len(ids))
	for _, id := range ids {
		inv, err := o.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if stateFilter != "" && inv.CurrentState() != stateFilter {
			continue
		}
		snaps = append(snaps, inv.Snapshot())
	}
	return snaps, nil
}

// CanExecute reports whether the trigger is currently legal for the
// invoice, without applying it.
func (o *Orchestrator) CanExecute(ctx context.Context, invoiceID string, trigger lifecycle.Trigger) (bool, error) {
	inv, err := o.store.Get(ctx, invoiceID)
	if err != nil {
		return false, err
	}
	return inv.CanTrigger(trigger), nil
}

// AvailableActions lists the triggers legal from the invoice's current
// state.
func (o *Orchestrator) AvailableActions(ctx context.Context, invoiceID string) ([]lifecycle.Trigger, error) {
	inv, err := o.store.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return inv.AvailableTriggers(), nil
}

// Tools exposes the tool registry for routing layers.
func (o *Orchestrator) Tools() *tool.Registry {
	return o.tools
}

// Subscribe registers an event subscriber.
func (o *Orchestrator) Subscribe(s bus.Subscriber) {
	o.bus.Subscribe(s)
}

// EventHistory returns the fired events matching the filter.
func (o *Orchestrator) EventHistory(f bus.HistoryFilter) []*event.Event {
	return o.bus.History(f)
}

// AuditTrail returns the audit entries matching the filter.
func (o *Orchestrator) AuditTrail(f audit.Filter) []audit.Entry {
	return o.audit.Entries(f)
}

func (o *Orchestrator) peekState(ctx context.Context, invoiceID string) lifecycle.State {
	inv, err := o.store.Get(ctx, invoiceID)
	if err != nil {
		return ""
	}
	return inv.CurrentState()
}

// applyDirect handles triggers with no dedicated tool, producing the same
// result envelope the tools do.
func (o *Orchestrator) applyDirect(ctx context.Context, invoiceID string, trigger lifecycle.Trigger, opCtx Context) tool.Result {
	inv, err := o.store.Get(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return tool.Fail(
				fmt.Sprintf("Invoice '%s' not found", invoiceID),
				tool.CodeInvoiceNotFound,
				map[string]any{"invoice_id": invoiceID},
			)
		}
		return tool.Fail(err.Error(), tool.CodeInternalError, nil)
	}

	actor := opCtx.Actor
	if actor == "" {
		actor = "system"
	}

	result, err := inv.Apply(trigger, actor, opCtx.Args.Reason)
	if err != nil {
		var terr *lifecycle.TransitionError
		if errors.As(err, &terr) {
			return tool.Fail(terr.Error(), tool.CodeInvalidState, terr.ToDetails())
		}
		return tool.Fail(err.Error(), tool.CodeInternalError, nil)
	}

	if err := o.store.Save(ctx, inv); err != nil {
		return tool.Fail(
			fmt.Sprintf("Failed to persist invoice '%s'", invoiceID),
			tool.CodeInternalError,
			map[string]any{"invoice_id": invoiceID},
		)
	}

	return tool.OK(
		fmt.Sprintf("Invoice %s moved from '%s' to '%s'.",
			invoiceID, result.PreviousState, result.CurrentState),
		map[string]any{
			"invoice_id":     result.InvoiceID,
			"trigger":        result.Trigger.String(),
			"previous_state": result.PreviousState.String(),
			"current_state":  result.CurrentState.String(),
		},
	)
}

// finish audits the tool outcome, fires any derived event, and converts
// the tool result into the orchestrator envelope.
func (o *Orchestrator) finish(ctx context.Context, invoiceID, toolName, transitionLabel string, previous lifecycle.State, opCtx Context, res tool.Result) Result {
	o.audit.LogToolExecuted(toolName, res.Success, invoiceID, res.Data)

	out := Result{
		Success:       res.Success,
		Message:       res.Message,
		InvoiceID:     invoiceID,
		PreviousState: previous,
		CurrentState:  previous,
		Data:          res.Data,
	}

	if !res.Success {
		out.Code = res.ErrorCode()
		switch out.Code {
		case tool.CodeInvalidState:
			o.audit.LogBlockedAction(toolName, res.Message, invoiceID, previous.String())
		case tool.CodeInvoiceNotFound, tool.CodeMissingReason, tool.CodeMissingResolution, tool.CodeNotDisputed:
			// validation failures are covered by the tool_executed entry
		default:
			o.audit.LogError(string(out.Code), res.Message, invoiceID)
		}
		return out
	}

	current := o.peekState(ctx, invoiceID)
	out.CurrentState = current

	if current != previous {
		o.audit.LogStateTransition(previous.String(), current.String(), transitionLabel, invoiceID)

		customerID := opCtx.CustomerID
		if customerID == "" {
			if inv, err := o.store.Get(ctx, invoiceID); err == nil {
				customerID = inv.CustomerID
			}
		}
		tr := &lifecycle.TransitionResult{
			InvoiceID:     invoiceID,
			PreviousState: previous,
			CurrentState:  current,
		}
		if fired := o.fireTransitionEvent(ctx, customerID, tr, opCtx); fired != "" {
			out.EventsFired = append(out.EventsFired, fired)
		}
	}

	return out
}

// fireTransitionEvent publishes the event derived from a transition pair,
// returning the type actually fired.
func (o *Orchestrator) fireTransitionEvent(ctx context.Context, customerID string, tr *lifecycle.TransitionResult, opCtx Context) event.Type {
	evt := event.FromTransition(tr.InvoiceID, customerID, tr.PreviousState, tr.CurrentState)
	if evt == nil {
		return ""
	}
	if opCtx.Args.Reason != "" {
		evt = evt.WithPayload("reason", opCtx.Args.Reason)
	}
	if opCtx.Args.Resolution != "" {
		evt = evt.WithPayload("resolution", opCtx.Args.Resolution)
	}
	if o.bus.Publish(ctx, evt) {
		return evt.Type
	}
	return ""
}
