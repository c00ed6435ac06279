package orchestrator

import "sync"

// invoiceLocks serializes operations per invoice id. Different invoices
// never block each other.
type invoiceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newInvoiceLocks() *invoiceLocks {
	return &invoiceLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *invoiceLocks) lock(invoiceID string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[invoiceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[invoiceID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
