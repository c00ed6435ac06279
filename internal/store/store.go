// Package store defines the invoice storage contract consumed by the
// orchestrator, and provides in-memory and SQLite implementations.
package store

import (
	"context"
	"errors"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
)

var (
	// ErrNotFound is returned when an invoice id is unknown
	ErrNotFound = errors.New("invoice not found")

	// ErrAlreadyExists is returned when creating an invoice with a taken id
	ErrAlreadyExists = errors.New("invoice already exists")
)

// Store is the abstract invoice store. Implementations hand out deep
// copies; the orchestrator's execute path is the only writer.
type Store interface {
	// Get returns the invoice or ErrNotFound
	Get(ctx context.Context, invoiceID string) (*lifecycle.Invoice, error)

	// Save persists the invoice state and any new history entries
	Save(ctx context.Context, inv *lifecycle.Invoice) error

	// Create creates a new invoice in the initial state, or fails with
	// ErrAlreadyExists
	Create(ctx context.Context, invoiceID, customerID string) (*lifecycle.Invoice, error)

	// List returns all invoice ids
	List(ctx context.Context) ([]string, error)
}
