package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/session"

	"github.com/shopspring/decimal"
)

// IncomeInput is a new income as entered. Empty fields take defaults.
type IncomeInput struct {
	Description string
	Amount      string
	Frequency   string
	PaymentDay  int
	Category    string
	// Recurring defaults to true.
	Recurring *bool
	// Date is optional; when set it marks the month the income starts in.
	Date string
}

// ExpenseInput is a new expense as entered. Empty fields take defaults.
type ExpenseInput struct {
	Description string
	Amount      string
	Category    string
	// Subcategory defaults to Category.
	Subcategory string
	Recurring   bool
	Frequency   string
	// Date defaults to today.
	Date   string
	Shared bool
}

type SavingsGoalInput struct {
	// MonthlyTarget that is empty or equal to zero removes the target.
	MonthlyTarget string
	Description   string
}

func (s *Service) Incomes(ctx context.Context) ([]core.Income, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.IncomesByUser(ctx, userID)
}

func (s *Service) AddIncome(ctx context.Context, in IncomeInput) (core.Income, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return core.Income{}, err
	}

	inc := core.Income{
		ID:          s.newID(),
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		PaymentDay:  in.PaymentDay,
		Category:    strings.TrimSpace(in.Category),
		Recurring:   true,
	}
	if inc.Description == "" {
		return core.Income{}, invalid(core.ErrEmptyDescription)
	}
	if inc.Amount, err = core.ParseAmount(in.Amount); err != nil {
		return core.Income{}, invalid(err)
	}
	if inc.Frequency, err = core.ParseFrequency(in.Frequency); err != nil {
		return core.Income{}, invalid(err)
	}
	if in.Recurring != nil {
		inc.Recurring = *in.Recurring
	}
	if inc.PaymentDay == 0 {
		inc.PaymentDay = 1
	}
	if strings.TrimSpace(in.Date) != "" {
		d, err := core.ParseDate(in.Date)
		if err != nil {
			return core.Income{}, invalid(err)
		}
		inc.Date = &d
	}
	if err := inc.Validate(); err != nil {
		return core.Income{}, invalid(err)
	}

	if err := s.store.SaveIncome(ctx, inc); err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	slog.InfoContext(ctx, "Income added",
		"id", inc.ID,
		"user_id", userID,
		"amount", inc.Amount.String(),
		"frequency", inc.Frequency)
	s.publish(ctx, amqp.ActionSaved, amqp.KindIncome, userID, inc.ID)
	return inc, nil
}

func (s *Service) DeleteIncome(ctx context.Context, id string) error {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, userID, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	s.publish(ctx, amqp.ActionDeleted, amqp.KindIncome, userID, id)
	return nil
}

func (s *Service) Expenses(ctx context.Context) ([]core.Expense, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ExpensesByUser(ctx, userID)
}

func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:          s.newID(),
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		Recurring:   in.Recurring,
		Shared:      in.Shared,
	}
	if e.Description == "" {
		return core.Expense{}, invalid(core.ErrEmptyDescription)
	}
	if e.Amount, err = core.ParseAmount(in.Amount); err != nil {
		return core.Expense{}, invalid(err)
	}
	if e.Category == "" {
		return core.Expense{}, invalid(core.ErrEmptyCategory)
	}
	if e.Subcategory == "" {
		e.Subcategory = e.Category
	}
	if e.Frequency, err = core.ParseFrequency(in.Frequency); err != nil {
		return core.Expense{}, invalid(err)
	}
	if strings.TrimSpace(in.Date) == "" {
		e.Date = core.DateOf(s.now())
	} else if e.Date, err = core.ParseDate(in.Date); err != nil {
		return core.Expense{}, invalid(err)
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}

	if err := s.store.SaveExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense added",
		"id", e.ID,
		"user_id", userID,
		"amount", e.Amount.String(),
		"category", e.Category,
		"shared", e.Shared)
	s.publish(ctx, amqp.ActionSaved, amqp.KindExpense, userID, e.ID)
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, amqp.ActionDeleted, amqp.KindExpense, userID, id)
	return nil
}

// SavingsGoal returns the session user's goal, nil when none is set.
func (s *Service) SavingsGoal(ctx context.Context) (*core.SavingsGoal, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.SavingsGoalByUser(ctx, userID)
}

// SetSavingsGoal replaces the session user's goal.
func (s *Service) SetSavingsGoal(ctx context.Context, in SavingsGoalInput) (core.SavingsGoal, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	g := core.SavingsGoal{
		UserID:        userID,
		MonthlyTarget: decimal.Zero,
		Description:   strings.TrimSpace(in.Description),
	}
	if g.MonthlyTarget, err = core.ParseTarget(in.MonthlyTarget); err != nil {
		return core.SavingsGoal{}, invalid(err)
	}

	existing, err := s.store.SavingsGoalByUser(ctx, userID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	if existing != nil {
		g.ID = existing.ID
	} else {
		g.ID = s.newID()
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, invalid(err)
	}

	if err := s.store.SaveSavingsGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("save savings goal: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal set", "user_id", userID, "monthly_target", g.MonthlyTarget.String())
	s.publish(ctx, amqp.ActionSaved, amqp.KindSavingsGoal, userID, g.ID)
	return g, nil
}
