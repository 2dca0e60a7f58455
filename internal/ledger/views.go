package ledger

import (
	"context"
	"fmt"
	"time"

	"haushaltskasse/internal/analytics"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/session"
)

// MonthlyReport is the historical view of the session user's ledger.
type MonthlyReport struct {
	Projection analytics.IncomeProjection `json:"projection"`
	Months     []analytics.MonthBucket    `json:"months"`
	Summary    analytics.Summary          `json:"summary"`
}

func (s *Service) userEntries(ctx context.Context) ([]core.Income, []core.Expense, error) {
	userID, err := session.CurrentID(ctx)
	if err != nil {
		return nil, nil, err
	}
	incomes, err := s.store.IncomesByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.store.ExpensesByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list expenses: %w", err)
	}
	return incomes, expenses, nil
}

// Overview computes the dashboard highlights of the session user.
func (s *Service) Overview(ctx context.Context) (analytics.Highlights, error) {
	incomes, expenses, err := s.userEntries(ctx)
	if err != nil {
		return analytics.Highlights{}, err
	}
	goal, err := s.SavingsGoal(ctx)
	if err != nil {
		return analytics.Highlights{}, fmt.Errorf("get savings goal: %w", err)
	}
	return analytics.ComputeHighlights(incomes, expenses, goal)
}

// MonthlyAnalytics builds the monthly breakdown. An empty projection uses the
// service default.
func (s *Service) MonthlyAnalytics(ctx context.Context, projection analytics.IncomeProjection) (MonthlyReport, error) {
	incomes, expenses, err := s.userEntries(ctx)
	if err != nil {
		return MonthlyReport{}, err
	}
	if projection == "" {
		projection = s.projection
	}
	return BuildMonthlyReport(expenses, incomes, s.now(), projection), nil
}

// BuildMonthlyReport assembles breakdown and summary for the given entries.
func BuildMonthlyReport(expenses []core.Expense, incomes []core.Income, now time.Time, projection analytics.IncomeProjection) MonthlyReport {
	months := analytics.BuildMonthlyBreakdown(expenses, incomes, now,
		analytics.BreakdownOptions{IncomeProjection: projection})
	summary := analytics.Summarize(months)
	summary.ExcludedIncomeCount = analytics.CountExcludedIncomes(incomes)
	return MonthlyReport{Projection: projection, Months: months, Summary: summary}
}

// CategoryChart returns the session user's expenses per category.
func (s *Service) CategoryChart(ctx context.Context, view analytics.ChartView) ([]analytics.ChartSlice, error) {
	_, expenses, err := s.userEntries(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryChart(expenses, view)
}

// Comparison ranks every user of the household.
func (s *Service) Comparison(ctx context.Context) (analytics.Comparison, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return analytics.Comparison{}, fmt.Errorf("list users: %w", err)
	}
	expenses, err := s.store.Expenses(ctx)
	if err != nil {
		return analytics.Comparison{}, fmt.Errorf("list expenses: %w", err)
	}
	return analytics.CompareUsers(users, expenses), nil
}
