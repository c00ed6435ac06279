package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.NewInMemory(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrations())
	return NewSQLiteStore(db.DB, zap.NewNop())
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "INV-001", "CUST-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateNew, created.CurrentState())

	inv, err := s.Get(ctx, "INV-001")
	require.NoError(t, err)

	inv.Amount = decimal.RequireFromString("1250.50")
	inv.DueDate = time.Now().UTC().Add(14 * 24 * time.Hour).Truncate(time.Second)

	_, err = inv.Apply(lifecycle.TriggerSendInvoice, "billing", "")
	require.NoError(t, err)
	_, err = inv.Apply(lifecycle.TriggerRequestApproval, "billing", "")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, inv))

	got, err := s.Get(ctx, "INV-001")
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StateAwaitingApproval, got.CurrentState())
	assert.False(t, got.IsTerminal())
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1250.50")))

	// History ordering survives the round trip, synthetic first entry included.
	require.Len(t, got.History, 3)
	assert.Equal(t, lifecycle.TriggerInitialized, got.History[0].Trigger)
	assert.Equal(t, lifecycle.State(""), got.History[0].Source)
	assert.Equal(t, lifecycle.TriggerSendInvoice, got.History[1].Trigger)
	assert.Equal(t, lifecycle.TriggerRequestApproval, got.History[2].Trigger)
	assert.Equal(t, "billing", got.History[1].Actor)
}

func TestSQLiteStore_SaveIsAppendOnly(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "INV-002", "")
	require.NoError(t, err)

	inv, err := s.Get(ctx, "INV-002")
	require.NoError(t, err)
	_, err = inv.Apply(lifecycle.TriggerSendInvoice, "", "")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, inv))

	// Saving the same invoice again must not duplicate history rows.
	require.NoError(t, s.Save(ctx, inv))

	got, err := s.Get(ctx, "INV-002")
	require.NoError(t, err)
	assert.Len(t, got.History, 2)
}

func TestSQLiteStore_CreateDuplicate(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "INV-003", "")
	require.NoError(t, err)

	_, err = s.Create(ctx, "INV-003", "")
	assert.True(t, errors.Is(err, ErrAlreadyExists))
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.Get(context.Background(), "INV-404")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_List(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"INV-001", "INV-002"} {
		_, err := s.Create(ctx, id, "")
		require.NoError(t, err)
	}

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-001", "INV-002"}, ids)
}
