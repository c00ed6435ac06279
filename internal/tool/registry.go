package tool

import (
	"sort"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// toolTriggers maps each state-changing tool to the trigger it applies.
// Read-only tools (status, resend) and administrative triggers
// (send_invoice, request_approval, request_payment) have no entry.
var toolTriggers = map[string]lifecycle.Trigger{
	"approve_invoice": lifecycle.TriggerApprove,
	"reject_invoice":  lifecycle.TriggerReject,
	"confirm_payment": lifecycle.TriggerConfirmPayment,
	"create_dispute":  lifecycle.TriggerDispute,
	"resolve_dispute": lifecycle.TriggerResolveDispute,
	"close_invoice":   lifecycle.TriggerClose,
}

// TriggerFor returns the trigger a tool applies, if it changes state.
func TriggerFor(toolName string) (lifecycle.Trigger, bool) {
	t, ok := toolTriggers[toolName]
	return t, ok
}

// Registry holds the full tool set keyed by name.
type Registry struct {
	tools     map[string]Tool
	byTrigger map[lifecycle.Trigger]Tool
}

// NewRegistry builds the standard tool set backed by the given store.
func NewRegistry(s store.Store, logger *zap.Logger) *Registry {
	r := &Registry{
		tools:     make(map[string]Tool),
		byTrigger: make(map[lifecycle.Trigger]Tool),
	}
	r.register(NewStatusTool(s, logger))
	r.register(NewApproveTool(s, logger))
	r.register(NewRejectTool(s, logger))
	r.register(NewConfirmPaymentTool(s, logger))
	r.register(NewResendTool(s, logger))
	r.register(NewDisputeTool(s, logger))
	r.register(NewResolveDisputeTool(s, logger))
	r.register(NewCloseTool(s, logger))
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name()] = t
	if trigger, ok := toolTriggers[t.Name()]; ok {
		r.byTrigger[trigger] = t
	}
}

// Get returns the tool registered under the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ForTrigger returns the tool that applies the given trigger.
func (r *Registry) ForTrigger(trigger lifecycle.Trigger) (Tool, bool) {
	t, ok := r.byTrigger[trigger]
	return t, ok
}

// Names lists the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
