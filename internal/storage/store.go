// Package storage defines the record store the ledger is kept in.
//
// Implementations live in the memory and sqlite subpackages and are selected
// by internal/backend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"haushaltskasse/internal/core"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnknownUser = errors.New("unknown user")
)

// Store is the persistence contract consumed by the ledger.
//
// Users, incomes and expenses are upserted by ID, savings goals by UserID.
// Collections are returned in insertion order. Income, expense and savings
// goal writes fail with ErrUnknownUser when the owning user is not stored.
type Store interface {
	Users(ctx context.Context) ([]core.User, error)
	UserByID(ctx context.Context, id string) (core.User, error)
	SaveUser(ctx context.Context, u core.User) error

	Incomes(ctx context.Context) ([]core.Income, error)
	IncomesByUser(ctx context.Context, userID string) ([]core.Income, error)
	SaveIncome(ctx context.Context, inc core.Income) error
	// DeleteIncome removes the income id owned by userID. An income owned by
	// another user is reported as ErrNotFound.
	DeleteIncome(ctx context.Context, userID, id string) error

	Expenses(ctx context.Context) ([]core.Expense, error)
	ExpensesByUser(ctx context.Context, userID string) ([]core.Expense, error)
	SaveExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error

	SavingsGoals(ctx context.Context) ([]core.SavingsGoal, error)
	// SavingsGoalByUser returns nil without error when the user has no goal.
	SavingsGoalByUser(ctx context.Context, userID string) (*core.SavingsGoal, error)
	SaveSavingsGoal(ctx context.Context, g core.SavingsGoal) error

	// ClearAll empties every collection.
	ClearAll(ctx context.Context) error
	// ReplaceAll clears the store and loads snap. Either all of snap is stored
	// or the previous contents are kept.
	ReplaceAll(ctx context.Context, snap Snapshot) error

	Close() error
}

// Snapshot is the full content of a store.
type Snapshot struct {
	Users        []core.User
	Incomes      []core.Income
	Expenses     []core.Expense
	SavingsGoals []core.SavingsGoal
}

// Load reads every collection of s.
func Load(ctx context.Context, s Store) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Users, err = s.Users(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Incomes, err = s.Incomes(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Expenses, err = s.Expenses(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.SavingsGoals, err = s.SavingsGoals(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CheckReferences reports the first record of snap whose owner is not among snap.Users.
func (snap Snapshot) CheckReferences() error {
	users := make(map[string]struct{}, len(snap.Users))
	for _, u := range snap.Users {
		users[u.ID] = struct{}{}
	}
	known := func(kind, id, userID string) error {
		if _, ok := users[userID]; !ok {
			return fmt.Errorf("%w: %s %s references user %q", ErrUnknownUser, kind, id, userID)
		}
		return nil
	}
	for _, inc := range snap.Incomes {
		if err := known("income", inc.ID, inc.UserID); err != nil {
			return err
		}
	}
	for _, e := range snap.Expenses {
		if err := known("expense", e.ID, e.UserID); err != nil {
			return err
		}
	}
	for _, g := range snap.SavingsGoals {
		if err := known("savings goal", g.ID, g.UserID); err != nil {
			return err
		}
	}
	return nil
}
