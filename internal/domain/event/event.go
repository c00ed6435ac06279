package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event represents a lifecycle event
type Event struct {
	ID             string         `json:"event_id"`
	Type           Type           `json:"event_type"`
	InvoiceID      string         `json:"invoice_id"`
	CustomerID     string         `json:"customer_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Payload        map[string]any `json:"payload"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// New creates an event with an auto-generated ID and a deterministic
// idempotency key derived from (type, invoice id, normalized payload).
func New(eventType Type, invoiceID, customerID string, payload map[string]any) *Event {
	if payload == nil {
		payload = make(map[string]any)
	}
	return &Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		InvoiceID:      invoiceID,
		CustomerID:     customerID,
		Timestamp:      time.Now().UTC(),
		Payload:        payload,
		IdempotencyKey: IdempotencyKey(eventType, invoiceID, payload),
	}
}

// IdempotencyKey derives the duplicate-suppression key for an event.
// Replaying the same business fact must re-derive the same key, so the
// payload is canonicalized (sorted keys, stable value formatting) before
// hashing. Timestamps and event IDs deliberately do not participate.
func IdempotencyKey(eventType Type, invoiceID string, payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(eventType.String())
	b.WriteByte(':')
	b.WriteString(invoiceID)
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", payload[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// WithPayload returns a copy of the event with an added payload entry.
// The idempotency key is re-derived from the new payload.
func (e *Event) WithPayload(key string, value any) *Event {
	payload := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	return &Event{
		ID:             e.ID,
		Type:           e.Type,
		InvoiceID:      e.InvoiceID,
		CustomerID:     e.CustomerID,
		Timestamp:      e.Timestamp,
		Payload:        payload,
		IdempotencyKey: IdempotencyKey(e.Type, e.InvoiceID, payload),
	}
}
