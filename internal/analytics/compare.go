package analytics

import (
	"slices"

	"haushaltskasse/internal/core"

	"github.com/shopspring/decimal"
)

const userTopCategoryLimit = 3

// CategoryCount is a category sum together with how many entries made it up.
type CategoryCount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// UserSpending is one user's line in the comparison.
type UserSpending struct {
	UserID        string          `json:"userId"`
	Username      string          `json:"username"`
	Color         string          `json:"color"`
	PersonalTotal decimal.Decimal `json:"personalTotal"`
	SharedTotal   decimal.Decimal `json:"sharedTotal"`
	Total         decimal.Decimal `json:"total"`
	ExpenseCount  int             `json:"expenseCount"`
	TopCategories []CategoryCount `json:"topCategories"`
	Rank          int             `json:"rank"`
}

// Comparison ranks users by what they spend.
type Comparison struct {
	Users          []UserSpending  `json:"users"`
	TotalShared    decimal.Decimal `json:"totalShared"`
	HouseholdTotal decimal.Decimal `json:"householdTotal"`
	AveragePerUser decimal.Decimal `json:"averagePerUser"`
}

// CompareUsers totals each user's expenses and ranks users descending by total.
// Users with equal totals keep their input order. Amounts are raw sums.
//
// A shared expense counts once, for the user who recorded it. TotalShared sums
// all shared expenses regardless of owner, including those of unknown users.
func CompareUsers(users []core.User, expenses []core.Expense) Comparison {
	byUser := make(map[string][]core.Expense, len(users))
	var c Comparison
	for _, e := range expenses {
		byUser[e.UserID] = append(byUser[e.UserID], e)
		if e.Shared {
			c.TotalShared = c.TotalShared.Add(e.Amount)
		}
	}

	c.Users = make([]UserSpending, 0, len(users))
	for _, u := range users {
		c.Users = append(c.Users, userSpending(u, byUser[u.ID]))
	}
	slices.SortStableFunc(c.Users, func(a, b UserSpending) int {
		return b.Total.Cmp(a.Total)
	})
	for i := range c.Users {
		c.Users[i].Rank = i + 1
		c.HouseholdTotal = c.HouseholdTotal.Add(c.Users[i].Total)
	}
	if len(c.Users) > 0 {
		c.AveragePerUser = c.HouseholdTotal.Div(decimal.NewFromInt(int64(len(c.Users))))
	}
	return c
}

func userSpending(u core.User, expenses []core.Expense) UserSpending {
	s := UserSpending{
		UserID:       u.ID,
		Username:     u.Username,
		Color:        u.Color,
		ExpenseCount: len(expenses),
	}
	if s.Color == "" {
		s.Color = core.DefaultUserColor
	}

	index := make(map[string]int)
	var cats []CategoryCount
	for _, e := range expenses {
		if e.Shared {
			s.SharedTotal = s.SharedTotal.Add(e.Amount)
		} else {
			s.PersonalTotal = s.PersonalTotal.Add(e.Amount)
		}
		if i, ok := index[e.Category]; ok {
			cats[i].Amount = cats[i].Amount.Add(e.Amount)
			cats[i].Count++
			continue
		}
		index[e.Category] = len(cats)
		cats = append(cats, CategoryCount{Name: e.Category, Amount: e.Amount, Count: 1})
	}
	s.Total = s.PersonalTotal.Add(s.SharedTotal)

	slices.SortStableFunc(cats, func(a, b CategoryCount) int {
		return b.Amount.Cmp(a.Amount)
	})
	if len(cats) > userTopCategoryLimit {
		cats = cats[:userTopCategoryLimit]
	}
	if cats == nil {
		cats = []CategoryCount{}
	}
	s.TopCategories = cats
	return s
}
