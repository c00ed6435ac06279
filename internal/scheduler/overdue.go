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

// OverdueChecker periodically scans for payment_pending invoices past
// their due date and fires invoice_overdue. The event payload carries the
// due date and whole days overdue, so re-scans within the same day
// restate the same fact and the bus drops them.
type OverdueChecker struct {
	store    store.Store
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

func NewOverdueChecker(s store.Store, b *bus.Bus, interval time.Duration, logger *zap.Logger) *OverdueChecker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueChecker{
		store:    s,
		bus:      b,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

func (c *OverdueChecker) Name() string { return "OverdueChecker" }

func (c *OverdueChecker) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return fmt.Errorf("overdue checker is already running")
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.isRunning = true

	c.logger.Info("OverdueChecker started", zap.Duration("interval", c.interval))
	go c.loop(ctx)

	return nil
}

func (c *OverdueChecker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		return
	}
	c.isRunning = false
	if c.cancel != nil {
		c.cancel()
	}
	c.logger.Info("OverdueChecker stopped")
}

func (c *OverdueChecker) loop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Scan(ctx); err != nil {
				c.logger.Error("Overdue scan failed", zap.Error(err))
			}
		}
	}
}

// Scan runs one pass over all invoices, firing invoice_overdue for each
// payment_pending invoice past its due date.
func (c *OverdueChecker) Scan(ctx context.Context) error {
	ids, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}

	now := c.now()
	fired := 0
	for _, id := range ids {
		inv, err := c.store.Get(ctx, id)
		if err != nil {
			c.logger.Warn("Skipping invoice in overdue scan",
				zap.String("invoice_id", id),
				zap.Error(err))
			continue
		}

		if inv.CurrentState() != lifecycle.StatePaymentPending {
			continue
		}
		if inv.DueDate.IsZero() || !inv.DueDate.Before(now) {
			continue
		}

		daysOverdue := int(now.Sub(inv.DueDate).Hours() / 24)
		evt := event.New(event.TypeInvoiceOverdue, inv.ID, inv.CustomerID, map[string]any{
			"due_date":     inv.DueDate.UTC().Format("2006-01-02"),
			"days_overdue": daysOverdue,
		})
		if c.bus.Publish(ctx, evt) {
			fired++
		}
	}

	c.logger.Debug("Overdue scan complete",
		zap.Int("scanned", len(ids)),
		zap.Int("fired", fired))
	return nil
}
