package store

import (
	"context"
	"sort"
	"sync"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
)

// MemoryStore is a simple in-memory invoice store for development,
// testing, and the channel simulator.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]*lifecycle.Invoice
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]*lifecycle.Invoice),
	}
}

// Get returns a deep copy of the invoice or ErrNotFound
func (s *MemoryStore) Get(_ context.Context, invoiceID string) (*lifecycle.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, ErrNotFound
	}
	return inv.Clone(), nil
}

// Save stores a deep copy of the invoice
func (s *MemoryStore) Save(_ context.Context, inv *lifecycle.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

// Create creates a new invoice or fails with ErrAlreadyExists
func (s *MemoryStore) Create(_ context.Context, invoiceID, customerID string) (*lifecycle.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoiceID]; exists {
		return nil, ErrAlreadyExists
	}

	inv := lifecycle.NewInvoice(invoiceID, customerID)
	s.invoices[invoiceID] = inv
	return inv.Clone(), nil
}

// List returns all invoice ids in sorted order
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.invoices))
	for id := range s.invoices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
