package analytics

import (
	"fmt"
	"slices"
	"strings"

	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
)

// ChartView filters expenses by their shared flag.
type ChartView string

const (
	ViewAll      ChartView = "all"
	ViewShared   ChartView = "shared"
	ViewPersonal ChartView = "personal"
)

// ParseChartView resolves a view name. The empty string means ViewAll.
func ParseChartView(s string) (ChartView, error) {
	switch v := ChartView(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewShared, ViewPersonal:
		return v, nil
	}
	return "", fmt.Errorf("unknown chart view %q", s)
}

func (v ChartView) includes(e core.Expense) bool {
	switch v {
	case ViewShared:
		return e.Shared
	case ViewPersonal:
		return !e.Shared
	}
	return true
}

// ChartSlice is one category of the expense chart.
type ChartSlice struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// CategoryChart sums monthly-equivalent amounts per category over the expenses
// matching view, sorted descending. Percentages are of the filtered total.
func CategoryChart(expenses []core.Expense, view ChartView) ([]ChartSlice, error) {
	index := make(map[string]int)
	out := []ChartSlice{}
	total := decimal.Zero

	for _, e := range expenses {
		if !view.includes(e) {
			continue
		}
		m, err := MonthlyEquivalent(e.Amount, e.Frequency)
		if err != nil {
			return nil, err
		}
		total = total.Add(m)
		if i, ok := index[e.Category]; ok {
			out[i].Amount = out[i].Amount.Add(m)
			continue
		}
		index[e.Category] = len(out)
		out = append(out, ChartSlice{Category: e.Category, Amount: m})
	}

	for i := range out {
		out[i].Percentage = Percentage(out[i].Amount, total)
	}
	slices.SortStableFunc(out, func(a, b ChartSlice) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out, nil
}
