package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/domain/event"
	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"github.com/garyjia/invoice-automation/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []*event.Event
}

func (c *capturedEvents) Name() string { return "captured" }

func (c *capturedEvents) SubscribedTypes() []event.Type { return event.AllTypes() }

func (c *capturedEvents) OnEvent(_ context.Context, evt *event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturedEvents) types() []event.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Type, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *capturedEvents, *audit.Log) {
	t.Helper()
	logger := zap.NewNop()
	auditLog := audit.NewLog(logger)
	captured := &capturedEvents{}
	eventBus := bus.New(bus.WithAuditLog(auditLog))
	eventBus.Subscribe(captured)
	return New(store.NewMemoryStore(), eventBus, auditLog, logger), captured, auditLog
}

func TestFullLifecycle(t *testing.T) {
	orc, captured, _ := newTestOrchestrator(t)
	ctx := context.Background()

	snap, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateNew, snap.CurrentState)

	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerRequestApproval)
	require.NoError(t, err)

	res := orc.Execute(ctx, "INV-100", lifecycle.TriggerApprove, Context{Actor: "mgr-1"})
	require.True(t, res.Success)
	assert.Equal(t, lifecycle.StateAwaitingApproval, res.PreviousState)
	assert.Equal(t, lifecycle.StateApproved, res.CurrentState)
	assert.Equal(t, []event.Type{event.TypeInvoiceApproved}, res.EventsFired)

	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerRequestPayment)
	require.NoError(t, err)

	res = orc.Execute(ctx, "INV-100", lifecycle.TriggerConfirmPayment, Context{})
	require.True(t, res.Success)
	assert.Equal(t, []event.Type{event.TypeInvoicePaid}, res.EventsFired)

	res = orc.Execute(ctx, "INV-100", lifecycle.TriggerClose, Context{})
	require.True(t, res.Success)
	assert.Equal(t, []event.Type{event.TypeInvoiceClosed}, res.EventsFired)

	assert.Equal(t, []event.Type{
		event.TypeInvoiceCreated,
		event.TypeInvoiceApproved,
		event.TypeInvoicePaid,
		event.TypeInvoiceClosed,
	}, captured.types())

	snap, err = orc.InvoiceState(ctx, "INV-100")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateClosed, snap.CurrentState)
	assert.True(t, snap.IsTerminal)
}

func TestExecuteBlockedAction(t *testing.T) {
	orc, captured, auditLog := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)

	res := orc.Execute(ctx, "INV-100", lifecycle.TriggerApprove, Context{})
	require.False(t, res.Success)
	assert.Equal(t, tool.CodeInvalidState, res.Code)
	assert.Equal(t, lifecycle.StateNew, res.CurrentState)
	assert.Empty(t, res.EventsFired)

	blocked := auditLog.Entries(audit.Filter{Action: audit.ActionBlockedAction})
	require.Len(t, blocked, 1)
	assert.Equal(t, "INV-100", blocked[0].InvoiceID)

	// only invoice_created made it onto the bus
	assert.Equal(t, []event.Type{event.TypeInvoiceCreated}, captured.types())
}

func TestExecuteNotFound(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)

	res := orc.Execute(context.Background(), "INV-404", lifecycle.TriggerApprove, Context{})

	require.False(t, res.Success)
	assert.Equal(t, tool.CodeInvoiceNotFound, res.Code)
}

func TestRejectRequiresReasonThenSucceeds(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerRequestApproval)
	require.NoError(t, err)

	res := orc.Execute(ctx, "INV-100", lifecycle.TriggerReject, Context{})
	require.False(t, res.Success)
	assert.Equal(t, tool.CodeMissingReason, res.Code)
	assert.Equal(t, lifecycle.StateAwaitingApproval, res.CurrentState)

	res = orc.Execute(ctx, "INV-100", lifecycle.TriggerReject, Context{
		Args: tool.Args{Reason: "duplicate billing"},
	})
	require.True(t, res.Success)
	assert.Equal(t, lifecycle.StateRejected, res.CurrentState)
}

func TestDisputeRoundTrip(t *testing.T) {
	orc, captured, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerRequestApproval)
	require.NoError(t, err)

	res := orc.Execute(ctx, "INV-100", lifecycle.TriggerApprove, Context{})
	require.True(t, res.Success)

	res = orc.Execute(ctx, "INV-100", lifecycle.TriggerDispute, Context{
		Args: tool.Args{Reason: "wrong line items"},
	})
	require.True(t, res.Success)
	assert.Equal(t, []event.Type{event.TypeInvoiceDisputed}, res.EventsFired)

	res = orc.Execute(ctx, "INV-100", lifecycle.TriggerResolveDispute, Context{
		Args: tool.Args{Resolution: "items corrected"},
	})
	require.True(t, res.Success)
	assert.Equal(t, lifecycle.StateAwaitingApproval, res.CurrentState)
	// dispute resolution returns to the approval gate; no event fires
	assert.NotContains(t, captured.types(), event.TypeInvoiceDisputeResolved)

	res = orc.Execute(ctx, "INV-100", lifecycle.TriggerApprove, Context{})
	require.True(t, res.Success)
	assert.Equal(t, lifecycle.StateApproved, res.CurrentState)

	// the re-approval restates an already-published fact; the bus
	// suppresses the replay
	approved := 0
	for _, et := range captured.types() {
		if et == event.TypeInvoiceApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
	assert.Empty(t, res.EventsFired)
}

func TestAdvanceStateError(t *testing.T) {
	orc, _, auditLog := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)

	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerConfirmPayment)
	require.Error(t, err)

	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "INV-100", stateErr.InvoiceID)
	assert.Equal(t, lifecycle.StateNew, stateErr.CurrentState)
	assert.Equal(t, lifecycle.TriggerConfirmPayment, stateErr.AttemptedAction)

	blocked := auditLog.Entries(audit.Filter{Action: audit.ActionBlockedAction})
	assert.Len(t, blocked, 1)
}

func TestAdvanceNotFound(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)

	_, err := orc.Advance(context.Background(), "INV-404", lifecycle.TriggerSendInvoice)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateInvoiceDuplicate(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)

	_, err = orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestListInvoicesFilter(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	for _, id := range []string{"INV-1", "INV-2", "INV-3"} {
		_, err := orc.CreateInvoice(ctx, id, "CUST-9")
		require.NoError(t, err)
	}
	_, err := orc.Advance(ctx, "INV-2", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)

	all, err := orc.ListInvoices(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sent, err := orc.ListInvoices(ctx, lifecycle.StateInvoiceSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "INV-2", sent[0].InvoiceID)
}

func TestCanExecuteAndAvailableActions(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)

	ok, err := orc.CanExecute(ctx, "INV-100", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orc.CanExecute(ctx, "INV-100", lifecycle.TriggerApprove)
	require.NoError(t, err)
	assert.False(t, ok)

	actions, err := orc.AvailableActions(ctx, "INV-100")
	require.NoError(t, err)
	assert.Equal(t, []lifecycle.Trigger{lifecycle.TriggerSendInvoice}, actions)
}

func TestExecuteToolStatus(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)

	res := orc.ExecuteTool(ctx, "get_invoice_status", "INV-100", Context{})
	require.True(t, res.Success)
	assert.Equal(t, lifecycle.StateNew, res.CurrentState)
	assert.Empty(t, res.EventsFired)
}

func TestExecuteToolUnknown(t *testing.T) {
	orc, _, _ := newTestOrchestrator(t)

	res := orc.ExecuteTool(context.Background(), "delete_everything", "INV-100", Context{})
	require.False(t, res.Success)
	assert.Equal(t, tool.CodeInternalError, res.Code)
}

func TestConcurrentApproveAppliesOnce(t *testing.T) {
	orc, captured, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := orc.CreateInvoice(ctx, "INV-100", "CUST-9")
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerSendInvoice)
	require.NoError(t, err)
	_, err = orc.Advance(ctx, "INV-100", lifecycle.TriggerRequestApproval)
	require.NoError(t, err)

	const workers = 16
	results := make([]Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = orc.Execute(ctx, "INV-100", lifecycle.TriggerApprove, Context{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	approved := 0
	for _, et := range captured.types() {
		if et == event.TypeInvoiceApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)

	inv, err := orc.InvoiceState(ctx, "INV-100")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateApproved, inv.CurrentState)
	// history: initialized, send, request_approval, approve
	assert.Len(t, inv.History, 4)
}
