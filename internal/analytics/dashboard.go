package analytics

import (
	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
)

// Highlights is the current run-rate view of one user's ledger.
type Highlights struct {
	MonthlyIncome         decimal.Decimal      `json:"monthlyIncome"`
	MonthlyExpenses       decimal.Decimal      `json:"monthlyExpenses"`
	CurrentSavings        decimal.Decimal      `json:"currentSavings"`
	SavingsRate           decimal.Decimal      `json:"savingsRate"`
	SavingsTarget         decimal.Decimal      `json:"savingsTarget"`
	GoalProgress          decimal.Decimal      `json:"goalProgress"`
	MonthsToGoal          *int                 `json:"monthsToGoal,omitempty"`
	TopExpenseCategory    *core.CategoryAmount `json:"topExpenseCategory,omitempty"`
	TotalSharedExpenses   decimal.Decimal      `json:"totalSharedExpenses"`
	TotalPersonalExpenses decimal.Decimal      `json:"totalPersonalExpenses"`
}

// ComputeHighlights derives the dashboard figures from un-bucketed entries.
//
// Monthly income normalizes every income whatever its recurring flag; monthly
// expenses only count recurring expenses. The top category and the shared and
// personal totals use raw sums over all expenses. goal may be nil.
func ComputeHighlights(incomes []core.Income, expenses []core.Expense, goal *core.SavingsGoal) (Highlights, error) {
	var h Highlights

	for _, inc := range incomes {
		m, err := MonthlyEquivalent(inc.Amount, inc.Frequency)
		if err != nil {
			return Highlights{}, err
		}
		h.MonthlyIncome = h.MonthlyIncome.Add(m)
	}

	index := make(map[string]int)
	var raw []core.CategoryAmount
	for _, e := range expenses {
		if e.Recurring {
			m, err := MonthlyEquivalent(e.Amount, e.Frequency)
			if err != nil {
				return Highlights{}, err
			}
			h.MonthlyExpenses = h.MonthlyExpenses.Add(m)
		}
		if e.Shared {
			h.TotalSharedExpenses = h.TotalSharedExpenses.Add(e.Amount)
		} else {
			h.TotalPersonalExpenses = h.TotalPersonalExpenses.Add(e.Amount)
		}
		if i, ok := index[e.Category]; ok {
			raw[i].Amount = raw[i].Amount.Add(e.Amount)
		} else {
			index[e.Category] = len(raw)
			raw = append(raw, core.CategoryAmount{Name: e.Category, Amount: e.Amount})
		}
	}
	if top := topN(raw, 1); len(top) == 1 {
		h.TopExpenseCategory = &top[0]
	}

	h.CurrentSavings = h.MonthlyIncome.Sub(h.MonthlyExpenses)
	h.SavingsRate = Percentage(h.CurrentSavings, h.MonthlyIncome)

	if goal.HasTarget() {
		h.SavingsTarget = goal.MonthlyTarget
		h.GoalProgress = clampPercent(Percentage(h.CurrentSavings, h.SavingsTarget))
		if h.CurrentSavings.IsPositive() {
			months := int(h.SavingsTarget.Div(h.CurrentSavings).Ceil().IntPart())
			h.MonthsToGoal = &months
		}
	}
	return h, nil
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
