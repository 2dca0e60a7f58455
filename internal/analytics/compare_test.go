package analytics

import (
	"testing"

	"haushaltskasse/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareUsers(t *testing.T) {
	d := core.NewDate(2025, 1, 1)
	users := []core.User{
		{ID: "anna", Username: "Anna", Color: "#3B82F6"},
		{ID: "ben", Username: "Ben"},
		{ID: "cara", Username: "Cara", Color: "#EF4444"},
	}
	expenses := []core.Expense{
		expense("anna", "Lebensmittel", "300", d, true, false),
		expense("anna", "Miete", "900", d, true, true),
		expense("ben", "Transport", "80", d, false, false),
		expense("ben", "Transport", "40", d, false, false),
		expense("ben", "Freizeit", "200", d, false, true),
		expense("ben", "Kleidung", "60", d, false, false),
		expense("ben", "Bildung", "10", d, false, false),
	}

	c := CompareUsers(users, expenses)
	require.Len(t, c.Users, 3)

	anna, ben, cara := c.Users[0], c.Users[1], c.Users[2]
	assert.Equal(t, "anna", anna.UserID)
	assert.Equal(t, 1, anna.Rank)
	assertDecimal(t, "300", anna.PersonalTotal)
	assertDecimal(t, "900", anna.SharedTotal)
	assertDecimal(t, "1200", anna.Total)

	assert.Equal(t, "ben", ben.UserID)
	assert.Equal(t, 2, ben.Rank)
	assert.Equal(t, core.DefaultUserColor, ben.Color)
	assertDecimal(t, "390", ben.Total)
	assert.Equal(t, 5, ben.ExpenseCount)
	require.Len(t, ben.TopCategories, 3)
	assert.Equal(t, "Freizeit", ben.TopCategories[0].Name)
	assert.Equal(t, "Transport", ben.TopCategories[1].Name)
	assert.Equal(t, 2, ben.TopCategories[1].Count)
	assertDecimal(t, "120", ben.TopCategories[1].Amount)
	assert.Equal(t, "Kleidung", ben.TopCategories[2].Name)

	assert.Equal(t, "cara", cara.UserID)
	assert.Equal(t, 3, cara.Rank)
	assertDecimal(t, "0", cara.Total)
	assert.Empty(t, cara.TopCategories)

	assertDecimal(t, "1100", c.TotalShared)
	assertDecimal(t, "1590", c.HouseholdTotal)
	assertDecimal(t, "530", c.AveragePerUser)
}

func TestCompareUsers_StableRanking(t *testing.T) {
	d := core.NewDate(2025, 2, 1)
	users := []core.User{
		{ID: "a", Username: "A"},
		{ID: "b", Username: "B"},
		{ID: "c", Username: "C"},
		{ID: "d", Username: "D"},
	}
	expenses := []core.Expense{
		expense("a", "X", "100", d, false, false),
		expense("b", "X", "250", d, false, false),
		expense("c", "X", "100", d, false, false),
		expense("d", "X", "100", d, false, false),
	}

	c := CompareUsers(users, expenses)

	var order []string
	for i, u := range c.Users {
		order = append(order, u.UserID)
		assert.Equal(t, i+1, u.Rank)
		if i > 0 {
			assert.True(t, c.Users[i-1].Total.GreaterThanOrEqual(u.Total))
		}
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, order)
}

func TestCompareUsers_NoUsers(t *testing.T) {
	c := CompareUsers(nil, nil)
	assert.Empty(t, c.Users)
	assertDecimal(t, "0", c.AveragePerUser)
	assertDecimal(t, "0", c.HouseholdTotal)
}
