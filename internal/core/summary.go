package core

import "github.com/shopspring/decimal"

// CategoryAmount is the summed amount of one category.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}
