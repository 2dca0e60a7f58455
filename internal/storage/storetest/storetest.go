// Package storetest holds the behaviour every storage.Store must show.
package storetest

import (
	"context"
	"testing"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. The store is closed by the suite.
type Factory func(t *testing.T) storage.Store

// Run exercises s against the storage.Store contract.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"users upsert by id", testUsers},
		{"incomes upsert and delete", testIncomes},
		{"expenses keep insertion order", testExpenses},
		{"savings goal keyed by user", testSavingsGoals},
		{"writes require known user", testUnknownUser},
		{"clear all", testClearAll},
		{"replace all", testReplaceAll},
		{"replace all keeps contents on error", testReplaceAllRejected},
		{"replace all with repeated ids keeps the last row", testReplaceAllRepeatedIDs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

var ctx = context.Background()

func anna() core.User {
	return core.User{ID: "u-anna", Username: "Anna", Color: "#3B82F6", CreatedAt: core.NewDate(2025, 1, 1).Time}
}

func ben() core.User {
	return core.User{ID: "u-ben", Username: "Ben", Color: "#10B981", SetupComplete: true, CreatedAt: core.NewDate(2025, 1, 2).Time}
}

func rent(id, userID string, day int) core.Expense {
	return core.Expense{
		ID:          id,
		UserID:      userID,
		Description: "Miete",
		Amount:      decimal.RequireFromString("900.50"),
		Category:    "Wohnen & Haushalt",
		Subcategory: "Miete / Hypothek",
		Recurring:   true,
		Frequency:   core.Monthly,
		Date:        core.NewDate(2025, 1, day),
		Shared:      true,
	}
}

func salary(id, userID string) core.Income {
	d := core.NewDate(2025, 1, 1)
	return core.Income{
		ID:          id,
		UserID:      userID,
		Description: "Gehalt",
		Amount:      decimal.RequireFromString("2500"),
		Frequency:   core.Monthly,
		PaymentDay:  25,
		Category:    "Gehalt/Lohn",
		Recurring:   true,
		Date:        &d,
	}
}

func seedUsers(t *testing.T, s storage.Store) {
	t.Helper()
	require.NoError(t, s.SaveUser(ctx, anna()))
	require.NoError(t, s.SaveUser(ctx, ben()))
}

func testUsers(t *testing.T, s storage.Store) {
	seedUsers(t, s)

	_, err := s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	updated := anna()
	updated.SetupComplete = true
	require.NoError(t, s.SaveUser(ctx, updated))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-anna", users[0].ID)
	assert.True(t, users[0].SetupComplete)

	got, err := s.UserByID(ctx, "u-ben")
	require.NoError(t, err)
	assert.Equal(t, "Ben", got.Username)
	assert.Equal(t, "#10B981", got.Color)
	assert.True(t, got.CreatedAt.Equal(ben().CreatedAt))
}

func testIncomes(t *testing.T, s storage.Store) {
	seedUsers(t, s)
	require.NoError(t, s.SaveIncome(ctx, salary("i1", "u-anna")))
	undated := salary("i2", "u-ben")
	undated.Date = nil
	undated.Frequency = core.Weekly
	require.NoError(t, s.SaveIncome(ctx, undated))

	changed := salary("i1", "u-anna")
	changed.Amount = decimal.RequireFromString("2600.75")
	require.NoError(t, s.SaveIncome(ctx, changed))

	all, err := s.Incomes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Amount.Equal(decimal.RequireFromString("2600.75")))
	require.NotNil(t, all[0].Date)
	assert.Equal(t, "2025-01-01", all[0].Date.String())
	assert.Nil(t, all[1].Date)
	assert.Equal(t, core.Weekly, all[1].Frequency)

	mine, err := s.IncomesByUser(ctx, "u-ben")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "i2", mine[0].ID)

	assert.ErrorIs(t, s.DeleteIncome(ctx, "u-ben", "i1"), storage.ErrNotFound, "foreign income")
	require.NoError(t, s.DeleteIncome(ctx, "u-anna", "i1"))
	assert.ErrorIs(t, s.DeleteIncome(ctx, "u-anna", "i1"), storage.ErrNotFound)

	all, err = s.Incomes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testExpenses(t *testing.T, s storage.Store) {
	seedUsers(t, s)
	for i, id := range []string{"e3", "e1", "e2"} {
		require.NoError(t, s.SaveExpense(ctx, rent(id, "u-anna", i+1)))
	}
	personal := rent("e4", "u-ben", 9)
	personal.Shared = false
	personal.Recurring = false
	require.NoError(t, s.SaveExpense(ctx, personal))

	all, err := s.Expenses(ctx)
	require.NoError(t, err)
	var ids []string
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"e3", "e1", "e2", "e4"}, ids)

	bens, err := s.ExpensesByUser(ctx, "u-ben")
	require.NoError(t, err)
	require.Len(t, bens, 1)
	assert.Equal(t, personal.Date.String(), bens[0].Date.String())
	assert.False(t, bens[0].Shared)
	assert.False(t, bens[0].Recurring)
	assert.True(t, bens[0].Amount.Equal(personal.Amount))
	assert.Equal(t, "Miete / Hypothek", bens[0].Subcategory)

	require.NoError(t, s.DeleteExpense(ctx, "u-anna", "e1"))
	assert.ErrorIs(t, s.DeleteExpense(ctx, "u-anna", "e4"), storage.ErrNotFound)

	annas, err := s.ExpensesByUser(ctx, "u-anna")
	require.NoError(t, err)
	assert.Len(t, annas, 2)
}

func testSavingsGoals(t *testing.T, s storage.Store) {
	seedUsers(t, s)

	g, err := s.SavingsGoalByUser(ctx, "u-anna")
	require.NoError(t, err)
	assert.Nil(t, g)

	require.NoError(t, s.SaveSavingsGoal(ctx, core.SavingsGoal{ID: "g1", UserID: "u-anna", MonthlyTarget: decimal.NewFromInt(300)}))
	require.NoError(t, s.SaveSavingsGoal(ctx, core.SavingsGoal{ID: "g2", UserID: "u-anna", MonthlyTarget: decimal.NewFromInt(500), Description: "Urlaub"}))

	goals, err := s.SavingsGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1, "one goal per user")

	g, err = s.SavingsGoalByUser(ctx, "u-anna")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.True(t, g.MonthlyTarget.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "Urlaub", g.Description)
}

func testUnknownUser(t *testing.T, s storage.Store) {
	assert.ErrorIs(t, s.SaveExpense(ctx, rent("e1", "ghost", 1)), storage.ErrUnknownUser)
	assert.ErrorIs(t, s.SaveIncome(ctx, salary("i1", "ghost")), storage.ErrUnknownUser)
	assert.ErrorIs(t, s.SaveSavingsGoal(ctx, core.SavingsGoal{ID: "g", UserID: "ghost"}), storage.ErrUnknownUser)
}

func testClearAll(t *testing.T, s storage.Store) {
	seedUsers(t, s)
	require.NoError(t, s.SaveExpense(ctx, rent("e1", "u-anna", 1)))
	require.NoError(t, s.SaveIncome(ctx, salary("i1", "u-anna")))
	require.NoError(t, s.SaveSavingsGoal(ctx, core.SavingsGoal{ID: "g1", UserID: "u-anna"}))

	require.NoError(t, s.ClearAll(ctx))

	snap, err := storage.Load(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Incomes)
	assert.Empty(t, snap.Expenses)
	assert.Empty(t, snap.SavingsGoals)
}

func testReplaceAll(t *testing.T, s storage.Store) {
	seedUsers(t, s)
	require.NoError(t, s.SaveExpense(ctx, rent("old", "u-ben", 1)))

	snap := storage.Snapshot{
		Users:        []core.User{anna()},
		Incomes:      []core.Income{salary("i1", "u-anna")},
		Expenses:     []core.Expense{rent("e1", "u-anna", 2), rent("e2", "u-anna", 3)},
		SavingsGoals: []core.SavingsGoal{{ID: "g1", UserID: "u-anna", MonthlyTarget: decimal.NewFromInt(250)}},
	}
	require.NoError(t, s.ReplaceAll(ctx, snap))

	got, err := storage.Load(ctx, s)
	require.NoError(t, err)
	require.Len(t, got.Users, 1)
	require.Len(t, got.Incomes, 1)
	require.Len(t, got.Expenses, 2)
	require.Len(t, got.SavingsGoals, 1)
	assert.Equal(t, "e1", got.Expenses[0].ID)
	_, err = s.UserByID(ctx, "u-ben")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testReplaceAllRejected(t *testing.T, s storage.Store) {
	seedUsers(t, s)
	require.NoError(t, s.SaveExpense(ctx, rent("keep", "u-ben", 1)))

	err := s.ReplaceAll(ctx, storage.Snapshot{
		Users:    []core.User{anna()},
		Expenses: []core.Expense{rent("orphan", "ghost", 1)},
	})
	assert.ErrorIs(t, err, storage.ErrUnknownUser)

	got, err := storage.Load(ctx, s)
	require.NoError(t, err)
	assert.Len(t, got.Users, 2)
	require.Len(t, got.Expenses, 1)
	assert.Equal(t, "keep", got.Expenses[0].ID)
}

func testReplaceAllRepeatedIDs(t *testing.T, s storage.Store) {
	renamed := anna()
	renamed.Color = "#EF4444"
	cheaper := rent("e1", "u-anna", 2)
	cheaper.Amount = decimal.NewFromInt(700)
	raise := salary("i1", "u-anna")
	raise.Description = "Gehalt neu"

	require.NoError(t, s.ReplaceAll(ctx, storage.Snapshot{
		Users:    []core.User{anna(), renamed},
		Incomes:  []core.Income{salary("i1", "u-anna"), raise},
		Expenses: []core.Expense{rent("e1", "u-anna", 2), cheaper},
	}))

	got, err := storage.Load(ctx, s)
	require.NoError(t, err)
	require.Len(t, got.Users, 1)
	require.Len(t, got.Incomes, 1)
	require.Len(t, got.Expenses, 1)
	assert.Equal(t, "#EF4444", got.Users[0].Color)
	assert.Equal(t, "Gehalt neu", got.Incomes[0].Description)
	assert.True(t, got.Expenses[0].Amount.Equal(decimal.NewFromInt(700)))
}
