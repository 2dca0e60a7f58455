package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MsgProcessingFailed = "failed to process data"
	MsgUsersMissing     = "invalid structure: user data missing"
)

// Result reports the outcome of an import to the user.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func failure(msg string) Result {
	return Result{Success: false, Message: msg}
}

// Import replaces the whole store with the document in raw.
//
// The document is parsed and every record is resolved and validated before the
// store is touched. Missing incomes, expenses or savings goals import as empty.
// Failures are reported in the Result and leave the store unchanged.
func Import(ctx context.Context, store storage.Store, raw []byte) Result {
	snap, res, ok := Decode(raw)
	if !ok {
		slog.WarnContext(ctx, "Import rejected", "reason", res.Message)
		return res
	}

	if err := store.ReplaceAll(ctx, snap); err != nil {
		slog.ErrorContext(ctx, "Import failed while replacing data", "error", err)
		return failure(MsgProcessingFailed)
	}

	msg := fmt.Sprintf("data imported successfully: %d users, %d incomes, %d expenses, %d savings goals",
		len(snap.Users), len(snap.Incomes), len(snap.Expenses), len(snap.SavingsGoals))
	slog.InfoContext(ctx, "Import completed",
		"users", len(snap.Users),
		"incomes", len(snap.Incomes),
		"expenses", len(snap.Expenses),
		"savings_goals", len(snap.SavingsGoals))
	return Result{Success: true, Message: msg}
}

// Decode parses and validates a backup document without storing it.
func Decode(raw []byte) (storage.Snapshot, Result, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return storage.Snapshot{}, failure(MsgProcessingFailed), false
	}

	users, ok := top["users"]
	if !ok || !isArray(users) {
		return storage.Snapshot{}, failure(MsgUsersMissing), false
	}

	var doc wireDocument
	if err := json.Unmarshal(users, &doc.Users); err != nil {
		return storage.Snapshot{}, failure(MsgProcessingFailed), false
	}
	optional := []struct {
		key string
		dst any
	}{
		{"incomes", &doc.Incomes},
		{"expenses", &doc.Expenses},
		{"savingsGoals", &doc.SavingsGoals},
	}
	for _, o := range optional {
		v, ok := top[o.key]
		if !ok || isNull(v) {
			continue
		}
		if err := json.Unmarshal(v, o.dst); err != nil {
			return storage.Snapshot{}, failure(MsgProcessingFailed), false
		}
	}

	snap, err := doc.resolve()
	if err != nil {
		return storage.Snapshot{}, failure("invalid data: " + err.Error()), false
	}
	if err := snap.CheckReferences(); err != nil {
		return storage.Snapshot{}, failure("invalid data: " + err.Error()), false
	}
	return snap, Result{Success: true}, true
}

func isArray(v json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(v), []byte("["))
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Wire records mirror the backup layout with optional fields left optional.
type (
	wireDocument struct {
		Users        []wireUser
		Incomes      []wireIncome
		Expenses     []wireExpense
		SavingsGoals []wireSavingsGoal
	}

	wireUser struct {
		ID              string `json:"id"`
		Username        string `json:"username"`
		Color           string `json:"color"`
		IsSetupComplete bool   `json:"isSetupComplete"`
		CreatedAt       string `json:"createdAt"`
	}

	wireIncome struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Frequency   string          `json:"frequency"`
		PaymentDay  int             `json:"paymentDay"`
		Category    string          `json:"category"`
		IsRecurring *bool           `json:"isRecurring"`
		Date        string          `json:"date"`
	}

	wireExpense struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory"`
		IsRecurring bool            `json:"isRecurring"`
		Frequency   string          `json:"frequency"`
		Date        string          `json:"date"`
		IsShared    bool            `json:"isShared"`
	}

	wireSavingsGoal struct {
		ID            string           `json:"id"`
		UserID        string           `json:"userId"`
		MonthlyTarget *decimal.Decimal `json:"monthlyTarget"`
		Description   string           `json:"description"`
	}
)

func orNewID(id string) string {
	if strings.TrimSpace(id) == "" {
		return uuid.NewString()
	}
	return id
}

func (d wireDocument) resolve() (storage.Snapshot, error) {
	snap := storage.Snapshot{
		Users:        make([]core.User, 0, len(d.Users)),
		Incomes:      make([]core.Income, 0, len(d.Incomes)),
		Expenses:     make([]core.Expense, 0, len(d.Expenses)),
		SavingsGoals: make([]core.SavingsGoal, 0, len(d.SavingsGoals)),
	}

	userIndex := make(map[string]int)
	for i, w := range d.Users {
		u := core.User{
			ID:            orNewID(w.ID),
			Username:      w.Username,
			Color:         w.Color,
			SetupComplete: w.IsSetupComplete,
		}
		if w.CreatedAt != "" {
			t, err := time.Parse(time.RFC3339, w.CreatedAt)
			if err != nil {
				return storage.Snapshot{}, fmt.Errorf("user %d: invalid createdAt %q", i, w.CreatedAt)
			}
			u.CreatedAt = t.UTC()
		}
		if err := u.Validate(); err != nil {
			return storage.Snapshot{}, fmt.Errorf("user %d: %w", i, err)
		}
		j, seen := userIndex[u.ID]
		for k, other := range snap.Users {
			if (!seen || k != j) && strings.EqualFold(other.Username, u.Username) {
				return storage.Snapshot{}, fmt.Errorf("duplicate username %q", u.Username)
			}
		}
		if seen {
			snap.Users[j] = u
			continue
		}
		userIndex[u.ID] = len(snap.Users)
		snap.Users = append(snap.Users, u)
	}

	incomeIndex := make(map[string]int)
	for i, w := range d.Incomes {
		inc := core.Income{
			ID:          orNewID(w.ID),
			UserID:      w.UserID,
			Description: w.Description,
			Amount:      w.Amount,
			PaymentDay:  w.PaymentDay,
			Category:    w.Category,
			Recurring:   true,
		}
		var err error
		if inc.Frequency, err = core.ParseFrequency(w.Frequency); err != nil {
			return storage.Snapshot{}, fmt.Errorf("income %d: %w", i, err)
		}
		if w.IsRecurring != nil {
			inc.Recurring = *w.IsRecurring
		}
		if inc.PaymentDay == 0 {
			inc.PaymentDay = 1
		}
		if w.Date != "" {
			date, err := core.ParseDate(w.Date)
			if err != nil {
				return storage.Snapshot{}, fmt.Errorf("income %d: %w", i, err)
			}
			inc.Date = &date
		}
		if err := inc.Validate(); err != nil {
			return storage.Snapshot{}, fmt.Errorf("income %d: %w", i, err)
		}
		if j, ok := incomeIndex[inc.ID]; ok {
			snap.Incomes[j] = inc
			continue
		}
		incomeIndex[inc.ID] = len(snap.Incomes)
		snap.Incomes = append(snap.Incomes, inc)
	}

	expenseIndex := make(map[string]int)
	for i, w := range d.Expenses {
		e := core.Expense{
			ID:          orNewID(w.ID),
			UserID:      w.UserID,
			Description: w.Description,
			Amount:      w.Amount,
			Category:    w.Category,
			Subcategory: w.Subcategory,
			Recurring:   w.IsRecurring,
			Shared:      w.IsShared,
		}
		if e.Subcategory == "" {
			e.Subcategory = e.Category
		}
		var err error
		if e.Frequency, err = core.ParseFrequency(w.Frequency); err != nil {
			return storage.Snapshot{}, fmt.Errorf("expense %d: %w", i, err)
		}
		if e.Date, err = core.ParseDate(w.Date); err != nil {
			return storage.Snapshot{}, fmt.Errorf("expense %d: %w", i, err)
		}
		if err := e.Validate(); err != nil {
			return storage.Snapshot{}, fmt.Errorf("expense %d: %w", i, err)
		}
		if j, ok := expenseIndex[e.ID]; ok {
			snap.Expenses[j] = e
			continue
		}
		expenseIndex[e.ID] = len(snap.Expenses)
		snap.Expenses = append(snap.Expenses, e)
	}

	goalIndex := make(map[string]int)
	for i, w := range d.SavingsGoals {
		g := core.SavingsGoal{
			ID:            orNewID(w.ID),
			UserID:        w.UserID,
			MonthlyTarget: decimal.Zero,
			Description:   w.Description,
		}
		if w.MonthlyTarget != nil {
			g.MonthlyTarget = *w.MonthlyTarget
		}
		if err := g.Validate(); err != nil {
			return storage.Snapshot{}, fmt.Errorf("savings goal %d: %w", i, err)
		}
		// One goal per user; a later entry wins.
		if j, ok := goalIndex[g.UserID]; ok {
			snap.SavingsGoals[j] = g
			continue
		}
		goalIndex[g.UserID] = len(snap.SavingsGoals)
		snap.SavingsGoals = append(snap.SavingsGoals, g)
	}

	return snap, nil
}
