package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"
	"haushaltskasse/internal/storage/storetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "haushaltskasse.db"))
	require.NoError(t, err)
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return newTestStore(t) })
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveUser(ctx, core.User{ID: "u1", Username: "anna"}))
	require.NoError(t, s.SaveExpense(ctx, core.Expense{
		ID: "e1", UserID: "u1", Description: "Brot", Amount: decimal.RequireFromString("3.49"),
		Category: "Lebensmittel & Ernährung", Frequency: core.Monthly, Date: core.NewDate(2025, 2, 3),
	}))
	require.NoError(t, s.Close())

	// Migrations are idempotent on an existing database.
	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(ctx))
	expenses, err := s.ExpensesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "3.49", expenses[0].Amount.StringFixed(2))
	assert.Equal(t, "2025-02", expenses[0].Date.MonthKey())
}
