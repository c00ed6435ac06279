package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SQLiteStore is the durable invoice store backed by SQLite. Invoice
// state lives in the invoices table; history entries are append-only rows
// in invoice_history keyed by (invoice_id, seq).
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a store over an open database handle
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger,
	}
}

// Get loads an invoice and its full history in insertion order
func (s *SQLiteStore) Get(ctx context.Context, invoiceID string) (*lifecycle.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT invoice_id, customer_id, amount, currency, due_date, state, created_at, updated_at
		FROM invoices
		WHERE invoice_id = ?
	`, invoiceID)

	var (
		inv       lifecycle.Invoice
		amount    string
		state     string
		dueDate   sql.NullTime
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&inv.ID, &inv.CustomerID, &amount, &inv.Currency, &dueDate, &state, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	inv.Amount = parsed
	inv.State = lifecycle.State(state)
	if dueDate.Valid {
		inv.DueDate = dueDate.Time
	}
	inv.CreatedAt = createdAt
	inv.UpdatedAt = updatedAt

	if !inv.State.IsValid() {
		return nil, fmt.Errorf("%w: stored state %q", lifecycle.ErrInvalidState, state)
	}

	history, err := s.loadHistory(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.History = history

	return &inv, nil
}

func (s *SQLiteStore) loadHistory(ctx context.Context, invoiceID string) ([]lifecycle.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, source, dest, trigger_name, actor, reason
		FROM invoice_history
		WHERE invoice_id = ?
		ORDER BY seq
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []lifecycle.HistoryEntry
	for rows.Next() {
		var (
			entry   lifecycle.HistoryEntry
			source  sql.NullString
			trigger string
			dest    string
		)
		if err := rows.Scan(&entry.Timestamp, &source, &dest, &trigger, &entry.Actor, &entry.Reason); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if source.Valid {
			entry.Source = lifecycle.State(source.String)
		}
		entry.Dest = lifecycle.State(dest)
		entry.Trigger = lifecycle.Trigger(trigger)
		history = append(history, entry)
	}
	return history, rows.Err()
}

// Save upserts the invoice row and appends any history entries not yet
// persisted. Existing history rows are never updated or deleted.
func (s *SQLiteStore) Save(ctx context.Context, inv *lifecycle.Invoice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var closedAt any
	if inv.IsTerminal() {
		closedAt = inv.UpdatedAt
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (invoice_id, customer_id, amount, currency, due_date, state, is_terminal, created_at, updated_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(invoice_id) DO UPDATE SET
			customer_id = excluded.customer_id,
			amount = excluded.amount,
			currency = excluded.currency,
			due_date = excluded.due_date,
			state = excluded.state,
			is_terminal = excluded.is_terminal,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at
	`, inv.ID, inv.CustomerID, inv.Amount.String(), inv.Currency, nullableTime(inv.DueDate),
		inv.State.String(), inv.IsTerminal(), inv.CreatedAt, inv.UpdatedAt, closedAt)
	if err != nil {
		return fmt.Errorf("upsert invoice: %w", err)
	}

	var persisted int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoice_history WHERE invoice_id = ?`, inv.ID,
	).Scan(&persisted); err != nil {
		return fmt.Errorf("count history: %w", err)
	}

	for seq := persisted; seq < len(inv.History); seq++ {
		entry := inv.History[seq]
		var source any
		if entry.Source != "" {
			source = entry.Source.String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_history (invoice_id, seq, timestamp, source, dest, trigger_name, actor, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, inv.ID, seq, entry.Timestamp, source, entry.Dest.String(), entry.Trigger.String(), entry.Actor, entry.Reason)
		if err != nil {
			return fmt.Errorf("insert history entry %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Create inserts a new invoice in the initial state
func (s *SQLiteStore) Create(ctx context.Context, invoiceID, customerID string) (*lifecycle.Invoice, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE invoice_id = ?`, invoiceID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existence: %w", err)
	}
	if exists > 0 {
		return nil, ErrAlreadyExists
	}

	inv := lifecycle.NewInvoice(invoiceID, customerID)
	if err := s.Save(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", invoiceID),
		zap.String("customer_id", customerID))
	return inv, nil
}

// List returns all invoice ids ordered by creation time
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT invoice_id FROM invoices ORDER BY created_at, invoice_id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
