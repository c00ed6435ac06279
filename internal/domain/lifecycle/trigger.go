package lifecycle

// Trigger represents a named action that causes a state transition
type Trigger string

const (
	TriggerSendInvoice     Trigger = "send_invoice"
	TriggerRequestApproval Trigger = "request_approval"
	TriggerApprove         Trigger = "approve"
	TriggerReject          Trigger = "reject"
	TriggerRequestPayment  Trigger = "request_payment"
	TriggerConfirmPayment  Trigger = "confirm_payment"
	TriggerClose           Trigger = "close"
	TriggerDispute         Trigger = "dispute"
	TriggerResolveDispute  Trigger = "resolve_dispute"

	// TriggerInitialized is synthetic: it only appears in the first
	// history record of a newly created invoice.
	TriggerInitialized Trigger = "initialized"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
