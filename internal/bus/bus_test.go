package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/domain/event"
	"go.uber.org/zap"
)

// recordingSubscriber collects delivered events
type recordingSubscriber struct {
	mu     sync.Mutex
	name   string
	types  []event.Type
	events []*event.Event
	fail   error
	panics bool
}

func (s *recordingSubscriber) Name() string                  { return s.name }
func (s *recordingSubscriber) SubscribedTypes() []event.Type { return s.types }

func (s *recordingSubscriber) OnEvent(_ context.Context, evt *event.Event) error {
	if s.panics {
		panic("subscriber exploded")
	}
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	return s.fail
}

func (s *recordingSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func approvedEvent(invoiceID string) *event.Event {
	return event.New(event.TypeInvoiceApproved, invoiceID, "", map[string]any{
		"previous_state": "awaiting_approval",
		"current_state":  "approved",
	})
}

func TestBus_PublishOnce(t *testing.T) {
	b := New()
	sub := &recordingSubscriber{name: "rec", types: []event.Type{event.TypeInvoiceApproved}}
	b.Subscribe(sub)

	evt := approvedEvent("INV-001")
	if !b.Publish(context.Background(), evt) {
		t.Fatal("first publish returned false")
	}
	if b.Publish(context.Background(), evt) {
		t.Error("duplicate publish returned true")
	}

	// Replaying the same business fact as a fresh event object must also
	// be suppressed: the key is derived from the fact, not the object.
	if b.Publish(context.Background(), approvedEvent("INV-001")) {
		t.Error("replayed business fact fired twice")
	}

	if sub.count() != 1 {
		t.Errorf("subscriber notified %d times, want 1", sub.count())
	}
	if got := len(b.History(HistoryFilter{})); got != 1 {
		t.Errorf("history has %d events, want 1", got)
	}
}

func TestBus_TypeFiltering(t *testing.T) {
	b := New()
	approvals := &recordingSubscriber{name: "approvals", types: []event.Type{event.TypeInvoiceApproved}}
	payments := &recordingSubscriber{name: "payments", types: []event.Type{event.TypeInvoicePaid}}
	b.Subscribe(approvals)
	b.Subscribe(payments)

	b.Publish(context.Background(), approvedEvent("INV-001"))

	if approvals.count() != 1 {
		t.Errorf("interested subscriber notified %d times, want 1", approvals.count())
	}
	if payments.count() != 0 {
		t.Errorf("uninterested subscriber notified %d times, want 0", payments.count())
	}
}

// nopLogger satisfies Logger for tests
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestBus_FailingSubscriberIsolation(t *testing.T) {
	b := New(WithLogger(nopLogger{}))
	failing := &recordingSubscriber{
		name:  "failing",
		types: []event.Type{event.TypeInvoiceApproved},
		fail:  errors.New("notification backend down"),
	}
	panicking := &recordingSubscriber{
		name:   "panicking",
		types:  []event.Type{event.TypeInvoiceApproved},
		panics: true,
	}
	healthy := &recordingSubscriber{name: "healthy", types: []event.Type{event.TypeInvoiceApproved}}

	b.Subscribe(failing)
	b.Subscribe(panicking)
	b.Subscribe(healthy)

	if !b.Publish(context.Background(), approvedEvent("INV-001")) {
		t.Fatal("publish failed")
	}
	if healthy.count() != 1 {
		t.Errorf("healthy subscriber notified %d times, want 1", healthy.count())
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	sub := &recordingSubscriber{name: "rec", types: []event.Type{event.TypeInvoiceApproved}}
	b.Subscribe(sub)
	b.Unsubscribe("rec")

	b.Publish(context.Background(), approvedEvent("INV-001"))
	if sub.count() != 0 {
		t.Error("unsubscribed subscriber still notified")
	}
}

func TestBus_HistoryFilters(t *testing.T) {
	b := New()
	b.Publish(context.Background(), approvedEvent("INV-001"))
	b.Publish(context.Background(), event.New(event.TypeInvoicePaid, "INV-001", "", nil))
	b.Publish(context.Background(), approvedEvent("INV-002"))

	if got := len(b.History(HistoryFilter{Type: event.TypeInvoiceApproved})); got != 2 {
		t.Errorf("type filter returned %d events, want 2", got)
	}
	if got := len(b.History(HistoryFilter{InvoiceID: "INV-001"})); got != 2 {
		t.Errorf("invoice filter returned %d events, want 2", got)
	}
	if got := len(b.History(HistoryFilter{Type: event.TypeInvoicePaid, InvoiceID: "INV-002"})); got != 0 {
		t.Errorf("combined filter returned %d events, want 0", got)
	}
}

func TestBus_AuditIntegration(t *testing.T) {
	auditLog := audit.NewLog(zap.NewNop())
	b := New(WithAuditLog(auditLog))

	evt := approvedEvent("INV-001")
	b.Publish(context.Background(), evt)
	b.Publish(context.Background(), evt) // suppressed, no audit entry

	fired := auditLog.Entries(audit.Filter{Action: audit.ActionEventFired})
	if len(fired) != 1 {
		t.Fatalf("audit has %d event_fired entries, want 1", len(fired))
	}
	if fired[0].Details["event_type"] != "invoice_approved" {
		t.Errorf("audit entry details = %v", fired[0].Details)
	}
}
