package analytics

import (
	"slices"

	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
)

const topCategoryLimit = 5

// Summary rolls a monthly breakdown up into totals and averages.
type Summary struct {
	Months              int                   `json:"months"`
	TotalExpenses       decimal.Decimal       `json:"totalExpenses"`
	TotalIncomes        decimal.Decimal       `json:"totalIncomes"`
	Difference          decimal.Decimal       `json:"difference"`
	AvgMonthlyExpenses  decimal.Decimal       `json:"avgMonthlyExpenses"`
	AvgMonthlyIncomes   decimal.Decimal       `json:"avgMonthlyIncomes"`
	TopCategories       []core.CategoryAmount `json:"topCategories"`
	ExcludedIncomeCount int                   `json:"excludedIncomeCount"`
}

// Summarize computes totals, per-month averages and the top five categories
// across all buckets. Categories with equal sums keep their first-seen order.
func Summarize(buckets []MonthBucket) Summary {
	s := Summary{Months: len(buckets)}

	index := make(map[string]int)
	var merged []core.CategoryAmount
	for _, b := range buckets {
		s.TotalExpenses = s.TotalExpenses.Add(b.TotalExpenses)
		s.TotalIncomes = s.TotalIncomes.Add(b.TotalIncomes)
		for _, c := range b.Categories {
			if i, ok := index[c.Name]; ok {
				merged[i].Amount = merged[i].Amount.Add(c.Amount)
				continue
			}
			index[c.Name] = len(merged)
			merged = append(merged, c)
		}
	}
	s.Difference = s.TotalIncomes.Sub(s.TotalExpenses)
	if len(buckets) > 0 {
		n := decimal.NewFromInt(int64(len(buckets)))
		s.AvgMonthlyExpenses = s.TotalExpenses.Div(n)
		s.AvgMonthlyIncomes = s.TotalIncomes.Div(n)
	}

	s.TopCategories = topN(merged, topCategoryLimit)
	return s
}

// topN sorts a copy of amounts descending, stable, and keeps at most n.
func topN(amounts []core.CategoryAmount, n int) []core.CategoryAmount {
	sorted := slices.Clone(amounts)
	slices.SortStableFunc(sorted, func(a, b core.CategoryAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []core.CategoryAmount{}
	}
	return sorted
}
