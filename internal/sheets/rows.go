package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"haushaltskasse/internal/analytics"
)

var header = []any{"Monat", "Einnahmen", "Ausgaben", "Differenz", "Gemeinsam", "Persönlich", "Top-Kategorie"}

// BuildRows lays the reports out one block per user: a title row, the header,
// one row per month, then totals and averages. Amounts are plain numbers so
// the spreadsheet can format and sum them.
func BuildRows(reports []UserReport, generatedAt time.Time) [][]any {
	rows := [][]any{{"Stand", generatedAt.Format("02.01.2006 15:04")}}
	for _, r := range reports {
		rows = append(rows, []any{}, []any{r.Username}, header)
		for _, m := range r.Report.Months {
			rows = append(rows, []any{
				m.Label,
				number(m.TotalIncomes),
				number(m.TotalExpenses),
				number(m.Difference),
				number(m.SharedExpenses),
				number(m.PersonalExpenses),
				topCategory(m),
			})
		}
		s := r.Report.Summary
		rows = append(rows,
			[]any{"Gesamt", number(s.TotalIncomes), number(s.TotalExpenses), number(s.Difference)},
			[]any{"Durchschnitt", number(s.AvgMonthlyIncomes), number(s.AvgMonthlyExpenses)},
		)
	}
	return rows
}

// topCategory is the month's largest category; the first one wins a tie.
func topCategory(m analytics.MonthBucket) string {
	name, best := "", decimal.Zero
	for _, c := range m.Categories {
		if name == "" || c.Amount.GreaterThan(best) {
			name, best = c.Name, c.Amount
		}
	}
	return name
}

func number(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
