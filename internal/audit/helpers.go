package audit

// Typed helpers for the common entry shapes. Long free-text fields are
// truncated so a single chat message cannot bloat the log.

const maxMessageLen = 500

// LogMessageReceived records an inbound message
func (l *Log) LogMessageReceived(message, invoiceID, customerID string) Entry {
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen]
	}
	return l.Log(ActionMessageReceived, invoiceID, customerID, map[string]any{
		"message": message,
	})
}

// LogRoutingDecision records the router's structured decision
func (l *Log) LogRoutingDecision(intent, tool, confidence, invoiceID string, warnings []string) Entry {
	if warnings == nil {
		warnings = []string{}
	}
	return l.Log(ActionRoutingDecision, invoiceID, "", map[string]any{
		"intent":     intent,
		"tool":       tool,
		"confidence": confidence,
		"warnings":   warnings,
	})
}

// LogToolExecuted records a tool execution and its outcome
func (l *Log) LogToolExecuted(toolName string, success bool, invoiceID string, result map[string]any) Entry {
	return l.Log(ActionToolExecuted, invoiceID, "", map[string]any{
		"tool_name": toolName,
		"success":   success,
		"result":    result,
	})
}

// LogStateTransition records a successful state transition
func (l *Log) LogStateTransition(previousState, currentState, trigger, invoiceID string) Entry {
	return l.Log(ActionStateTransition, invoiceID, "", map[string]any{
		"previous_state": previousState,
		"current_state":  currentState,
		"trigger":        trigger,
	})
}

// LogEventFired records a published lifecycle event
func (l *Log) LogEventFired(eventType, invoiceID, customerID string, payload map[string]any) Entry {
	if payload == nil {
		payload = map[string]any{}
	}
	return l.Log(ActionEventFired, invoiceID, customerID, map[string]any{
		"event_type": eventType,
		"payload":    payload,
	})
}

// LogError records an unexpected error
func (l *Log) LogError(errorType, errorMessage, invoiceID string) Entry {
	return l.Log(ActionErrorOccurred, invoiceID, "", map[string]any{
		"error_type":    errorType,
		"error_message": errorMessage,
	})
}

// LogBlockedAction records an action refused by state validation
func (l *Log) LogBlockedAction(action, reason, invoiceID, currentState string) Entry {
	return l.Log(ActionBlockedAction, invoiceID, "", map[string]any{
		"blocked_action": action,
		"reason":         reason,
		"current_state":  currentState,
	})
}
