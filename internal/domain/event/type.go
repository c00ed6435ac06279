package event

// Type identifies the type of lifecycle event
type Type string

const (
	TypeInvoiceCreated         Type = "invoice_created"
	TypeInvoiceSent            Type = "invoice_sent"
	TypeInvoiceApproved        Type = "invoice_approved"
	TypeInvoiceRejected        Type = "invoice_rejected"
	TypeInvoicePaid            Type = "invoice_paid"
	TypeInvoiceClosed          Type = "invoice_closed"
	TypeInvoiceDisputed        Type = "invoice_disputed"
	TypeInvoiceDisputeResolved Type = "invoice_dispute_resolved"

	// Reminder events fired by the scheduler
	TypeInvoiceOverdue  Type = "invoice_overdue"
	TypePaymentReminder Type = "payment_reminder"

	// Error events
	TypeActionBlocked Type = "action_blocked"
	TypeErrorOccurred Type = "error_occurred"
)

// AllTypes returns every defined event type
func AllTypes() []Type {
	return []Type{
		TypeInvoiceCreated,
		TypeInvoiceSent,
		TypeInvoiceApproved,
		TypeInvoiceRejected,
		TypeInvoicePaid,
		TypeInvoiceClosed,
		TypeInvoiceDisputed,
		TypeInvoiceDisputeResolved,
		TypeInvoiceOverdue,
		TypePaymentReminder,
		TypeActionBlocked,
		TypeErrorOccurred,
	}
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceCreated,
		TypeInvoiceSent,
		TypeInvoiceApproved,
		TypeInvoiceRejected,
		TypeInvoicePaid,
		TypeInvoiceClosed,
		TypeInvoiceDisputed,
		TypeInvoiceDisputeResolved,
		TypeInvoiceOverdue,
		TypePaymentReminder,
		TypeActionBlocked,
		TypeErrorOccurred:
		return true
	default:
		return false
	}
}
