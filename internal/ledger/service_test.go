package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/analytics"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/session"
	"haushaltskasse/internal/storage"
	"haushaltskasse/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.Action+":"+m.Kind)
	}
	return out
}

var fixedNow = time.Date(2025, 3, 18, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	n := 0
	svc := New(memory.New(),
		WithPublisher(pub),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	return svc, pub
}

func login(t *testing.T, svc *Service, name string) context.Context {
	t.Helper()
	u, err := svc.Register(context.Background(), name, "")
	require.NoError(t, err)
	return session.WithUser(context.Background(), u)
}

func TestRegister(t *testing.T) {
	svc, pub := setup(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Anna ", "")
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.Username)
	assert.Equal(t, core.UserColors[0], u.Color)
	assert.False(t, u.SetupComplete)
	assert.Equal(t, fixedNow, u.CreatedAt)

	_, err = svc.Register(ctx, "anna", "#EF4444")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, "   ", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, core.ErrEmptyUsername)

	_, err = svc.Register(ctx, "Ben", "red")
	assert.ErrorIs(t, err, core.ErrInvalidColor)

	assert.Equal(t, []string{"saved:user"}, pub.actions())
}

func TestLogin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, "Anna", "#8B5CF6")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "ANNA")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	_, err = svc.Login(ctx, "Ben")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Login(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteSetup(t *testing.T) {
	svc, _ := setup(t)
	ctx := login(t, svc, "Anna")

	u, err := svc.CompleteSetup(ctx)
	require.NoError(t, err)
	assert.True(t, u.SetupComplete)

	stored, err := svc.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.SetupComplete)

	_, err = svc.CompleteSetup(context.Background())
	assert.ErrorIs(t, err, session.ErrNoUser)
}

func TestUserByID_NotFound(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.UserByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddIncome_Defaults(t *testing.T) {
	svc, pub := setup(t)
	ctx := login(t, svc, "Anna")

	inc, err := svc.AddIncome(ctx, IncomeInput{Description: "Gehalt", Amount: "2500,00"})
	require.NoError(t, err)
	assert.Equal(t, core.Monthly, inc.Frequency)
	assert.True(t, inc.Recurring)
	assert.Equal(t, 1, inc.PaymentDay)
	assert.Nil(t, inc.Date)
	assert.True(t, inc.Amount.Equal(decimal.NewFromInt(2500)))

	notRecurring := false
	bonus, err := svc.AddIncome(ctx, IncomeInput{
		Description: "Bonus", Amount: "500", Frequency: "yearly",
		Recurring: &notRecurring, Date: "2025-02-01",
	})
	require.NoError(t, err)
	assert.False(t, bonus.Recurring)
	require.NotNil(t, bonus.Date)
	assert.Equal(t, "2025-02", bonus.Date.MonthKey())

	incomes, err := svc.Incomes(ctx)
	require.NoError(t, err)
	assert.Len(t, incomes, 2)
	assert.Equal(t, []string{"saved:user", "saved:income", "saved:income"}, pub.actions())
}

func TestAddIncome_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := login(t, svc, "Anna")

	tests := []struct {
		name string
		in   IncomeInput
		want error
	}{
		{"missing description", IncomeInput{Amount: "10"}, core.ErrEmptyDescription},
		{"missing amount", IncomeInput{Description: "x"}, core.ErrInvalidAmount},
		{"zero amount", IncomeInput{Description: "x", Amount: "0"}, core.ErrInvalidAmount},
		{"unknown frequency", IncomeInput{Description: "x", Amount: "10", Frequency: "daily"}, core.ErrInvalidFrequency},
		{"payment day out of range", IncomeInput{Description: "x", Amount: "10", PaymentDay: 40}, core.ErrInvalidPaymentDay},
		{"bad date", IncomeInput{Description: "x", Amount: "10", Date: "gestern"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddIncome(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	incomes, err := svc.Incomes(ctx)
	require.NoError(t, err)
	assert.Empty(t, incomes, "rejected entries are not persisted")
}

func TestAddExpense_Defaults(t *testing.T) {
	svc, _ := setup(t)
	ctx := login(t, svc, "Anna")

	e, err := svc.AddExpense(ctx, ExpenseInput{
		Description: "Wocheneinkauf", Amount: "84.20", Category: "Lebensmittel & Ernährung", Shared: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lebensmittel & Ernährung", e.Subcategory)
	assert.Equal(t, core.Monthly, e.Frequency)
	assert.Equal(t, "2025-03-18", e.Date.String())
	assert.True(t, e.Shared)
	assert.False(t, e.Recurring)
}

func TestAddExpense_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := login(t, svc, "Anna")

	tests := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"missing description", ExpenseInput{Amount: "1", Category: "c"}, core.ErrEmptyDescription},
		{"negative amount", ExpenseInput{Description: "d", Amount: "-1", Category: "c"}, core.ErrInvalidAmount},
		{"missing category", ExpenseInput{Description: "d", Amount: "1"}, core.ErrEmptyCategory},
		{"unknown frequency", ExpenseInput{Description: "d", Amount: "1", Category: "c", Frequency: "hourly"}, core.ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddExpense(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEntriesRequireSession(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, ExpenseInput{Description: "d", Amount: "1", Category: "c"})
	assert.ErrorIs(t, err, session.ErrNoUser)
	_, err = svc.Incomes(ctx)
	assert.ErrorIs(t, err, session.ErrNoUser)
	_, err = svc.Overview(ctx)
	assert.ErrorIs(t, err, session.ErrNoUser)
}

func TestDeleteScopedToSessionUser(t *testing.T) {
	svc, pub := setup(t)
	anna := login(t, svc, "Anna")
	ben := login(t, svc, "Ben")

	e, err := svc.AddExpense(anna, ExpenseInput{Description: "Miete", Amount: "900", Category: "Wohnen & Haushalt"})
	require.NoError(t, err)

	err = svc.DeleteExpense(ben, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, svc.DeleteExpense(anna, e.ID))
	expenses, err := svc.Expenses(anna)
	require.NoError(t, err)
	assert.Empty(t, expenses)
	assert.Contains(t, pub.actions(), "deleted:expense")

	inc, err := svc.AddIncome(anna, IncomeInput{Description: "Gehalt", Amount: "2000"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteIncome(ben, inc.ID), storage.ErrNotFound)
	require.NoError(t, svc.DeleteIncome(anna, inc.ID))
}

func TestSetSavingsGoal_UpsertByUser(t *testing.T) {
	svc, _ := setup(t)
	ctx := login(t, svc, "Anna")

	g, err := svc.SavingsGoal(ctx)
	require.NoError(t, err)
	assert.Nil(t, g)

	first, err := svc.SetSavingsGoal(ctx, SavingsGoalInput{MonthlyTarget: "300"})
	require.NoError(t, err)
	second, err := svc.SetSavingsGoal(ctx, SavingsGoalInput{MonthlyTarget: "450,50", Description: "Urlaub"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	goals, err := svc.Store().SavingsGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].MonthlyTarget.Equal(decimal.RequireFromString("450.5")))

	cleared, err := svc.SetSavingsGoal(ctx, SavingsGoalInput{MonthlyTarget: "0"})
	require.NoError(t, err)
	assert.True(t, cleared.MonthlyTarget.IsZero())

	_, err = svc.SetSavingsGoal(ctx, SavingsGoalInput{MonthlyTarget: "viel"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetSavingsGoal_ZeroTargetClears(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "empty", target: ""},
		{name: "plain zero", target: "0"},
		{name: "zero with cents", target: "0.00"},
		{name: "zero with comma", target: "0,0"},
		{name: "zero with one decimal", target: "0.0"},
		{name: "negative", target: "-10", wantErr: true},
		{name: "malformed", target: "0.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setup(t)
			ctx := login(t, svc, "Anna")
			_, err := svc.SetSavingsGoal(ctx, SavingsGoalInput{MonthlyTarget: "300"})
			require.NoError(t, err)

			g, err := svc.SetSavingsGoal(ctx, SavingsGoalInput{MonthlyTarget: tt.target})
			stored, getErr := svc.SavingsGoal(ctx)
			require.NoError(t, getErr)
			require.NotNil(t, stored)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.True(t, stored.MonthlyTarget.Equal(decimal.NewFromInt(300)))
				return
			}
			require.NoError(t, err)
			assert.True(t, g.MonthlyTarget.IsZero())
			assert.False(t, stored.HasTarget())
		})
	}
}

func TestOverviewAndAnalytics_Anna(t *testing.T) {
	svc, _ := setup(t)
	ctx := login(t, svc, "Anna")

	_, err := svc.AddExpense(ctx, ExpenseInput{Description: "Einkauf", Amount: "300", Category: "Lebensmittel",
		Recurring: true, Frequency: "monthly", Date: "2025-01-15"})
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, ExpenseInput{Description: "Wohnung", Amount: "900", Category: "Miete",
		Recurring: true, Frequency: "monthly", Date: "2025-01-01", Shared: true})
	require.NoError(t, err)
	_, err = svc.AddIncome(ctx, IncomeInput{Description: "Gehalt", Amount: "2500", Frequency: "monthly"})
	require.NoError(t, err)

	h, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.True(t, h.MonthlyIncome.Equal(decimal.NewFromInt(2500)))
	assert.True(t, h.MonthlyExpenses.Equal(decimal.NewFromInt(1200)))
	assert.True(t, h.CurrentSavings.Equal(decimal.NewFromInt(1300)))
	assert.True(t, h.SavingsRate.Equal(decimal.NewFromInt(52)))

	report, err := svc.MonthlyAnalytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, analytics.ProjectAllMonths, report.Projection)
	require.Len(t, report.Months, 1)
	assert.Equal(t, "2025-01", report.Months[0].Key)
	assert.True(t, report.Months[0].Difference.Equal(decimal.NewFromInt(1300)))
	assert.Equal(t, 0, report.Summary.ExcludedIncomeCount)

	chart, err := svc.CategoryChart(ctx, analytics.ViewShared)
	require.NoError(t, err)
	require.Len(t, chart, 1)
	assert.Equal(t, "Miete", chart[0].Category)
}

func TestComparison(t *testing.T) {
	svc, _ := setup(t)
	anna := login(t, svc, "Anna")
	ben := login(t, svc, "Ben")

	_, err := svc.AddExpense(anna, ExpenseInput{Description: "Miete", Amount: "900", Category: "Miete", Shared: true})
	require.NoError(t, err)
	_, err = svc.AddExpense(ben, ExpenseInput{Description: "Kino", Amount: "30", Category: "Freizeit"})
	require.NoError(t, err)

	c, err := svc.Comparison(anna)
	require.NoError(t, err)
	require.Len(t, c.Users, 2)
	assert.Equal(t, "Anna", c.Users[0].Username)
	assert.True(t, c.TotalShared.Equal(decimal.NewFromInt(900)))
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, pub := setup(t)
	ctx := login(t, svc, "Anna")
	pub.err = errors.New("broker down")

	_, err := svc.AddExpense(ctx, ExpenseInput{Description: "Brot", Amount: "3", Category: "Lebensmittel"})
	require.NoError(t, err)

	expenses, err := svc.Expenses(ctx)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestClearAll(t *testing.T) {
	svc, pub := setup(t)
	ctx := login(t, svc, "Anna")

	require.NoError(t, svc.ClearAll(ctx))
	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Contains(t, pub.actions(), "cleared:all")
}
