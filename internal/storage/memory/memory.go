// Package memory is an in-process record store. Contents are lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	users    []core.User
	incomes  []core.Income
	expenses []core.Expense
	goals    []core.SavingsGoal
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewFromSnapshot returns a store preloaded with snap.
func NewFromSnapshot(snap storage.Snapshot) (*Store, error) {
	s := New()
	if err := s.ReplaceAll(context.Background(), snap); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Users(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.userIndex(id); i >= 0 {
		return s.users[i], nil
	}
	return core.User{}, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
}

func (s *Store) SaveUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.userIndex(u.ID); i >= 0 {
		s.users[i] = u
		return nil
	}
	s.users = append(s.users, u)
	return nil
}

func (s *Store) Incomes(_ context.Context) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.incomes), nil
}

func (s *Store) IncomesByUser(_ context.Context, userID string) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.incomes, func(inc core.Income) bool { return inc.UserID == userID }), nil
}

func (s *Store) SaveIncome(_ context.Context, inc core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(inc.UserID); err != nil {
		return err
	}
	s.incomes = upsert(s.incomes, inc, func(x core.Income) bool { return x.ID == inc.ID })
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.incomes, func(x core.Income) bool { return x.ID == id && x.UserID == userID })
	if i < 0 {
		return fmt.Errorf("income %q: %w", id, storage.ErrNotFound)
	}
	s.incomes = slices.Delete(s.incomes, i, i+1)
	return nil
}

func (s *Store) Expenses(_ context.Context) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses), nil
}

func (s *Store) ExpensesByUser(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.expenses, func(e core.Expense) bool { return e.UserID == userID }), nil
}

func (s *Store) SaveExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(e.UserID); err != nil {
		return err
	}
	s.expenses = upsert(s.expenses, e, func(x core.Expense) bool { return x.ID == e.ID })
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.expenses, func(x core.Expense) bool { return x.ID == id && x.UserID == userID })
	if i < 0 {
		return fmt.Errorf("expense %q: %w", id, storage.ErrNotFound)
	}
	s.expenses = slices.Delete(s.expenses, i, i+1)
	return nil
}

func (s *Store) SavingsGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.goals), nil
}

func (s *Store) SavingsGoalByUser(_ context.Context, userID string) (*core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.goals, func(g core.SavingsGoal) bool { return g.UserID == userID })
	if i < 0 {
		return nil, nil
	}
	g := s.goals[i]
	return &g, nil
}

func (s *Store) SaveSavingsGoal(_ context.Context, g core.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(g.UserID); err != nil {
		return err
	}
	s.goals = upsert(s.goals, g, func(x core.SavingsGoal) bool { return x.UserID == g.UserID })
	return nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.incomes, s.expenses, s.goals = nil, nil, nil, nil
	return nil
}

func (s *Store) ReplaceAll(_ context.Context, snap storage.Snapshot) error {
	if err := snap.CheckReferences(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Rows are upserted in order, matching the sqlite backend when ids repeat.
	s.users, s.incomes, s.expenses, s.goals = nil, nil, nil, nil
	for _, u := range snap.Users {
		s.users = upsert(s.users, u, func(x core.User) bool { return x.ID == u.ID })
	}
	for _, inc := range snap.Incomes {
		s.incomes = upsert(s.incomes, inc, func(x core.Income) bool { return x.ID == inc.ID })
	}
	for _, e := range snap.Expenses {
		s.expenses = upsert(s.expenses, e, func(x core.Expense) bool { return x.ID == e.ID })
	}
	for _, g := range snap.SavingsGoals {
		s.goals = upsert(s.goals, g, func(x core.SavingsGoal) bool { return x.UserID == g.UserID })
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) userIndex(id string) int {
	return slices.IndexFunc(s.users, func(u core.User) bool { return u.ID == id })
}

func (s *Store) requireUser(id string) error {
	if s.userIndex(id) < 0 {
		return fmt.Errorf("%w: %q", storage.ErrUnknownUser, id)
	}
	return nil
}

// upsert replaces the first element matching same, or appends v.
func upsert[T any](items []T, v T, same func(T) bool) []T {
	if i := slices.IndexFunc(items, same); i >= 0 {
		items[i] = v
		return items
	}
	return append(items, v)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, v := range items {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
