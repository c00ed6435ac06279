package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/domain/event"
	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/store"
	"go.uber.org/zap"
)

// PaymentReminder fires payment_reminder for payment_pending invoices
// whose due date falls within the lead window.
type PaymentReminder struct {
	store    store.Store
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	leadDays int
	now      func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

func NewPaymentReminder(s store.Store, b *bus.Bus, interval time.Duration, leadDays int, logger *zap.Logger) *PaymentReminder {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	if leadDays <= 0 {
		leadDays = 3
	}
	return &PaymentReminder{
		store:    s,
		bus:      b,
		logger:   logger,
		interval: interval,
		leadDays: leadDays,
		now:      time.Now,
	}
}

func (r *PaymentReminder) Name() string { return "PaymentReminder" }

func (r *PaymentReminder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("payment reminder is already running")
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.isRunning = true

	r.logger.Info("PaymentReminder started",
		zap.Duration("interval", r.interval),
		zap.Int("lead_days", r.leadDays))
	go r.loop(ctx)

	return nil
}

func (r *PaymentReminder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}
	r.isRunning = false
	if r.cancel != nil {
		r.cancel()
	}
	r.logger.Info("PaymentReminder stopped")
}

func (r *PaymentReminder) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Scan(ctx); err != nil {
				r.logger.Error("Reminder scan failed", zap.Error(err))
			}
		}
	}
}

// Scan fires one reminder per invoice approaching its due date. The
// payload carries days_until_due, so each remaining day yields a fresh
// fact and duplicates within a day are dropped by the bus.
func (r *PaymentReminder) Scan(ctx context.Context) error {
	ids, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}

	now := r.now()
	for _, id := range ids {
		inv, err := r.store.Get(ctx, id)
		if err != nil {
			continue
		}

		if inv.CurrentState() != lifecycle.StatePaymentPending {
			continue
		}
		if inv.DueDate.IsZero() || inv.DueDate.Before(now) {
			continue
		}

		daysUntil := int(inv.DueDate.Sub(now).Hours() / 24)
		if daysUntil > r.leadDays {
			continue
		}

		evt := event.New(event.TypePaymentReminder, inv.ID, inv.CustomerID, map[string]any{
			"due_date":       inv.DueDate.UTC().Format("2006-01-02"),
			"days_until_due": daysUntil,
		})
		r.bus.Publish(ctx, evt)
	}

	return nil
}
