// Package bus publishes lifecycle events to subscribers. Each distinct
// event (by idempotency key) fires at most once; subscriber failures are
// isolated so one misbehaving subscriber never blocks the rest or the
// transition that triggered the event.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/domain/event"
)

// Subscriber receives published events. SubscribedTypes declares the
// interest set; only matching event types are delivered.
type Subscriber interface {
	Name() string
	SubscribedTypes() []event.Type
	OnEvent(ctx context.Context, evt *event.Event) error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HistoryFilter narrows the events returned by History. Zero values match all.
type HistoryFilter struct {
	Type      event.Type
	InvoiceID string
}

// Bus is the in-process event bus
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	history     []*event.Event
	firedKeys   map[string]struct{}
	auditLog    *audit.Log
	logger      Logger
}

// Option configures the bus
type Option func(*Bus)

// WithLogger sets a logger for the bus
func WithLogger(logger Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithAuditLog records every fired event in the audit log
func WithAuditLog(log *audit.Log) Option {
	return func(b *Bus) {
		b.auditLog = log
	}
}

// New creates a new event bus
func New(opts ...Option) *Bus {
	b := &Bus{
		firedKeys: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe adds a subscriber. Delivery order follows registration order.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)

	if b.logger != nil {
		b.logger.Info("Subscriber registered", "name", s.Name())
	}
}

// Unsubscribe removes a subscriber by name
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	filtered := make([]Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		if s.Name() != name {
			filtered = append(filtered, s)
		}
	}
	b.subscribers = filtered
}

// Publish delivers the event to every subscriber whose interest set
// includes the event type. It returns false and notifies nobody when the
// event's idempotency key has already been seen. The idempotency check
// happens before any delivery.
func (b *Bus) Publish(ctx context.Context, evt *event.Event) bool {
	b.mu.Lock()
	if _, fired := b.firedKeys[evt.IdempotencyKey]; fired {
		b.mu.Unlock()
		if b.logger != nil {
			b.logger.Info("Event already fired, suppressed",
				"event_type", evt.Type,
				"invoice_id", evt.InvoiceID,
				"idempotency_key", evt.IdempotencyKey)
		}
		return false
	}
	b.firedKeys[evt.IdempotencyKey] = struct{}{}
	b.history = append(b.history, evt)
	subscribers := make([]Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.Unlock()

	if b.auditLog != nil {
		b.auditLog.LogEventFired(evt.Type.String(), evt.InvoiceID, evt.CustomerID, evt.Payload)
	}

	if b.logger != nil {
		b.logger.Info("Publishing event",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"invoice_id", evt.InvoiceID)
	}

	for _, s := range subscribers {
		if !subscribed(s, evt.Type) {
			continue
		}
		if err := b.safeDeliver(ctx, s, evt); err != nil {
			if b.logger != nil {
				b.logger.Error("Subscriber error",
					"subscriber", s.Name(),
					"event_type", evt.Type,
					"event_id", evt.ID,
					"error", err)
			}
			// Deliberately not propagated: remaining subscribers and the
			// triggering transition must not be affected.
		}
	}

	return true
}

// History returns published events matching the filter, in publish order
func (b *Bus) History(f HistoryFilter) []*event.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*event.Event
	for _, evt := range b.history {
		if f.Type != "" && evt.Type != f.Type {
			continue
		}
		if f.InvoiceID != "" && evt.InvoiceID != f.InvoiceID {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// Reset clears history and fired keys (for testing)
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
	b.firedKeys = make(map[string]struct{})
}

// safeDeliver runs a subscriber with panic recovery
func (b *Bus) safeDeliver(ctx context.Context, s Subscriber, evt *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return s.OnEvent(ctx, evt)
}

func subscribed(s Subscriber, t event.Type) bool {
	for _, st := range s.SubscribedTypes() {
		if st == t {
			return true
		}
	}
	return false
}
