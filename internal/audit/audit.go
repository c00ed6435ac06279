// Package audit provides an append-only, timestamped record of every
// decision the system makes: inbound messages, routing decisions, tool
// executions, state transitions, fired events, and blocked actions.
package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is the kind of auditable action
type Action string

const (
	ActionMessageReceived Action = "message_received"
	ActionRoutingDecision Action = "routing_decision"
	ActionToolExecuted    Action = "tool_executed"
	ActionStateTransition Action = "state_transition"
	ActionEventFired      Action = "event_fired"
	ActionErrorOccurred   Action = "error_occurred"
	ActionBlockedAction   Action = "blocked_action"
)

// Entry is a single audit log entry. Entries are never mutated or removed
// after creation.
type Entry struct {
	EntryID    string         `json:"entry_id"`
	Action     Action         `json:"action"`
	Timestamp  time.Time      `json:"timestamp"`
	InvoiceID  string         `json:"invoice_id,omitempty"`
	CustomerID string         `json:"customer_id,omitempty"`
	SessionID  string         `json:"session_id"`
	Details    map[string]any `json:"details"`
}

// Filter narrows the entries returned by Entries. Zero values match all.
type Filter struct {
	Action    Action
	InvoiceID string
	Since     time.Time
}

// Log is an append-only audit log. Writes always succeed in memory; when
// a file sink is configured each entry is additionally appended as a JSON
// line.
type Log struct {
	mu        sync.RWMutex
	entries   []Entry
	sink      *os.File
	sessionID string
	logger    *zap.Logger
}

// Option configures the audit log
type Option func(*Log)

// WithSessionID groups entries under a caller-chosen session identifier
func WithSessionID(id string) Option {
	return func(l *Log) {
		l.sessionID = id
	}
}

// WithFileSink appends every entry to the given path as JSON lines
func WithFileSink(path string) Option {
	return func(l *Log) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l.logger.Error("Failed to open audit sink, continuing in-memory only",
				zap.String("path", path), zap.Error(err))
			return
		}
		l.sink = f
	}
}

// NewLog creates a new audit log
func NewLog(logger *zap.Logger, opts ...Option) *Log {
	l := &Log{
		sessionID: uuid.NewString(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SessionID returns the session identifier stamped on every entry
func (l *Log) SessionID() string {
	return l.sessionID
}

// Log appends an entry. It always succeeds; sink write failures are
// logged and do not affect the in-memory record.
func (l *Log) Log(action Action, invoiceID, customerID string, details map[string]any) Entry {
	if details == nil {
		details = make(map[string]any)
	}

	entry := Entry{
		EntryID:    uuid.NewString(),
		Action:     action,
		Timestamp:  time.Now().UTC(),
		InvoiceID:  invoiceID,
		CustomerID: customerID,
		SessionID:  l.sessionID,
		Details:    details,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if raw, err := json.Marshal(entry); err == nil {
			if _, err := sink.Write(append(raw, '\n')); err != nil {
				l.logger.Error("Failed to write audit entry to sink", zap.Error(err))
			}
		}
	}

	l.logger.Debug("Audit entry recorded",
		zap.String("action", string(action)),
		zap.String("invoice_id", invoiceID))

	return entry
}

// Entries returns entries matching the filter in insertion order
func (l *Log) Entries(f Filter) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, e := range l.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.InvoiceID != "" && e.InvoiceID != f.InvoiceID {
			continue
		}
		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// AllEntries returns every entry in insertion order
func (l *Log) AllEntries() []Entry {
	return l.Entries(Filter{})
}

// Close closes the file sink if one is configured
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink != nil {
		err := l.sink.Close()
		l.sink = nil
		return err
	}
	return nil
}
