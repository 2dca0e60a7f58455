package analytics

import (
	"slices"
	"strings"
	"time"

	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
)

// IncomeProjection selects how monthly incomes are spread over the breakdown.
type IncomeProjection string

const (
	// ProjectAllMonths adds every monthly income to every month that has data,
	// regardless of when the income started.
	ProjectAllMonths IncomeProjection = "all"
	// ProjectFromEffectiveDate adds a dated monthly income only to months from
	// its own date onward. Undated incomes behave as ProjectAllMonths.
	ProjectFromEffectiveDate IncomeProjection = "effective"
)

// ParseIncomeProjection resolves a projection name. The empty string means ProjectAllMonths.
func ParseIncomeProjection(s string) (IncomeProjection, bool) {
	switch p := IncomeProjection(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProjectAllMonths, true
	case ProjectAllMonths, ProjectFromEffectiveDate:
		return p, true
	}
	return "", false
}

// BreakdownOptions tunes BuildMonthlyBreakdown.
type BreakdownOptions struct {
	IncomeProjection IncomeProjection
}

// MonthBucket aggregates one calendar month.
type MonthBucket struct {
	Key              string                `json:"key"`
	Label            string                `json:"label"`
	TotalExpenses    decimal.Decimal       `json:"totalExpenses"`
	TotalIncomes     decimal.Decimal       `json:"totalIncomes"`
	Difference       decimal.Decimal       `json:"difference"`
	Categories       []core.CategoryAmount `json:"categories"`
	SharedExpenses   decimal.Decimal       `json:"sharedExpenses"`
	PersonalExpenses decimal.Decimal       `json:"personalExpenses"`
}

// CategoryTotal returns the month's sum for category, zero when absent.
func (b MonthBucket) CategoryTotal(category string) decimal.Decimal {
	for _, c := range b.Categories {
		if c.Name == category {
			return c.Amount
		}
	}
	return decimal.Zero
}

// PercentOfExpenses is the category's share of the month's expenses.
func (b MonthBucket) PercentOfExpenses(category string) decimal.Decimal {
	return Percentage(b.CategoryTotal(category), b.TotalExpenses)
}

// PercentOfIncome is the category's spending measured against the month's income.
func (b MonthBucket) PercentOfIncome(category string) decimal.Decimal {
	return Percentage(b.CategoryTotal(category), b.TotalIncomes)
}

func (b MonthBucket) SharedShare() decimal.Decimal {
	return Percentage(b.SharedExpenses, b.TotalExpenses)
}

func (b MonthBucket) PersonalShare() decimal.Decimal {
	return Percentage(b.PersonalExpenses, b.TotalExpenses)
}

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthLabel renders a month key such as "2025-03" as "März 2025".
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return germanMonths[t.Month()-1] + " " + t.Format("2006")
}

type bucketBuilder struct {
	bucket     MonthBucket
	categories map[string]int
}

func newBucketBuilder(key string) *bucketBuilder {
	return &bucketBuilder{
		bucket: MonthBucket{
			Key:        key,
			Label:      MonthLabel(key),
			Categories: []core.CategoryAmount{},
		},
		categories: make(map[string]int),
	}
}

func (bb *bucketBuilder) addExpense(e core.Expense) {
	b := &bb.bucket
	b.TotalExpenses = b.TotalExpenses.Add(e.Amount)
	if i, ok := bb.categories[e.Category]; ok {
		b.Categories[i].Amount = b.Categories[i].Amount.Add(e.Amount)
	} else {
		bb.categories[e.Category] = len(b.Categories)
		b.Categories = append(b.Categories, core.CategoryAmount{Name: e.Category, Amount: e.Amount})
	}
	if e.Shared {
		b.SharedExpenses = b.SharedExpenses.Add(e.Amount)
	} else {
		b.PersonalExpenses = b.PersonalExpenses.Add(e.Amount)
	}
}

// BuildMonthlyBreakdown buckets expenses by the month of their own date and
// projects monthly incomes onto every month that has data. Without expenses a
// single bucket for now's month is produced. Weekly and yearly incomes are not
// part of the breakdown. Buckets are ordered by month key.
func BuildMonthlyBreakdown(expenses []core.Expense, incomes []core.Income, now time.Time, opts BreakdownOptions) []MonthBucket {
	builders := make(map[string]*bucketBuilder)
	var keys []string

	for _, e := range expenses {
		key := e.Date.MonthKey()
		bb, ok := builders[key]
		if !ok {
			bb = newBucketBuilder(key)
			builders[key] = bb
			keys = append(keys, key)
		}
		bb.addExpense(e)
	}

	if len(keys) == 0 {
		key := core.DateOf(now).MonthKey()
		builders[key] = newBucketBuilder(key)
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, inc := range incomes {
		if inc.Frequency != core.Monthly {
			continue
		}
		from := ""
		if opts.IncomeProjection == ProjectFromEffectiveDate && inc.Date != nil {
			from = inc.Date.MonthKey()
		}
		for _, key := range keys {
			if key < from {
				continue
			}
			b := &builders[key].bucket
			b.TotalIncomes = b.TotalIncomes.Add(inc.Amount)
		}
	}

	out := make([]MonthBucket, 0, len(keys))
	for _, key := range keys {
		b := builders[key].bucket
		b.Difference = b.TotalIncomes.Sub(b.TotalExpenses)
		out = append(out, b)
	}
	return out
}

// CountExcludedIncomes returns how many incomes the breakdown leaves out
// because they are not monthly.
func CountExcludedIncomes(incomes []core.Income) int {
	n := 0
	for _, inc := range incomes {
		if inc.Frequency != core.Monthly {
			n++
		}
	}
	return n
}
