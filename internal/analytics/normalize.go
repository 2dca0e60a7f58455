// Package analytics turns raw ledger entries into monthly figures, category
// rollups and cross-user comparisons. Every function here is pure: results are
// recomputed from the full entry set on each call.
package analytics

import (
	"fmt"

	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
)

var (
	weeksPerMonth = decimal.RequireFromString("4.33")
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// Normalizer converts an amount of one frequency into its monthly equivalent.
type Normalizer interface {
	MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal
}

// MonthlyNormalizer returns the amount unchanged.
type MonthlyNormalizer struct{}

func (MonthlyNormalizer) MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal {
	return amount
}

// WeeklyNormalizer uses 4.33 weeks per month.
type WeeklyNormalizer struct{}

func (WeeklyNormalizer) MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(weeksPerMonth)
}

// YearlyNormalizer spreads the amount over twelve months.
type YearlyNormalizer struct{}

func (YearlyNormalizer) MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(monthsPerYear)
}

var normalizers = map[core.Frequency]Normalizer{
	core.Monthly: MonthlyNormalizer{},
	core.Weekly:  WeeklyNormalizer{},
	core.Yearly:  YearlyNormalizer{},
}

// GetNormalizer returns the normalizer for a frequency.
// Frequencies are resolved at the data-entry boundary, so an unknown one is a
// contract violation and reported as core.ErrInvalidFrequency.
func GetNormalizer(f core.Frequency) (Normalizer, error) {
	n, ok := normalizers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, string(f))
	}
	return n, nil
}

// MonthlyEquivalent converts amount of frequency f to what it contributes per month.
func MonthlyEquivalent(amount decimal.Decimal, f core.Frequency) (decimal.Decimal, error) {
	n, err := GetNormalizer(f)
	if err != nil {
		return decimal.Zero, err
	}
	return n.MonthlyEquivalent(amount), nil
}

// Percentage returns part / whole * 100, or zero when whole is zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
