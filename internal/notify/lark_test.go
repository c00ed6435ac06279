package notify

import (
	"testing"

	"github.com/garyjia/invoice-automation/internal/domain/event"
	"github.com/stretchr/testify/assert"
)

func TestFormatEventMessage(t *testing.T) {
	tests := []struct {
		name string
		evt  *event.Event
		want string
	}{
		{
			name: "approved",
			evt:  event.New(event.TypeInvoiceApproved, "INV-1", "CUST-1", nil),
			want: "✅ Invoice INV-1 has been approved.",
		},
		{
			name: "disputed with reason",
			evt: event.New(event.TypeInvoiceDisputed, "INV-2", "CUST-1", map[string]any{
				"reason": "wrong amount",
			}),
			want: "⚠️ Invoice INV-2 is disputed: wrong amount",
		},
		{
			name: "overdue with days",
			evt: event.New(event.TypeInvoiceOverdue, "INV-3", "CUST-1", map[string]any{
				"days_overdue": 5,
			}),
			want: "⏰ Invoice INV-3 is overdue by 5 day(s).",
		},
		{
			name: "unmapped type falls through",
			evt:  event.New(event.TypeInvoiceCreated, "INV-4", "CUST-1", nil),
			want: "Invoice INV-4: invoice_created",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEventMessage(tt.evt))
		})
	}
}

func TestSubscribedTypesExcludeInternalEvents(t *testing.T) {
	n := &LarkNotifier{}
	for _, st := range n.SubscribedTypes() {
		assert.NotEqual(t, event.TypeActionBlocked, st)
		assert.NotEqual(t, event.TypeErrorOccurred, st)
	}
}
