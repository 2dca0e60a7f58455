package analytics

import (
	"fmt"
	"testing"

	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, fmt.Sprintf("want %s, got %s", want, got), msgAndArgs...)
	}
}

func expense(user, category, amount string, date core.Date, recurring, shared bool) core.Expense {
	return core.Expense{
		ID:          user + "-" + category + "-" + date.String(),
		UserID:      user,
		Description: category,
		Amount:      dec(amount),
		Category:    category,
		Subcategory: category,
		Recurring:   recurring,
		Frequency:   core.Monthly,
		Date:        date,
		Shared:      shared,
	}
}

func income(user, amount string, freq core.Frequency) core.Income {
	return core.Income{
		ID:          user + "-income-" + amount,
		UserID:      user,
		Description: "Gehalt",
		Amount:      dec(amount),
		Frequency:   freq,
		PaymentDay:  1,
		Recurring:   true,
	}
}
