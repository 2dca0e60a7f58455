package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"
	"haushaltskasse/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2025, 4, 2, 8, 15, 0, 0, time.UTC)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	jan := core.NewDate(2025, 1, 1)
	s, err := memory.NewFromSnapshot(storage.Snapshot{
		Users: []core.User{{ID: "u1", Username: "Anna", Color: "#3B82F6", CreatedAt: exportTime}},
		Incomes: []core.Income{{
			ID: "i1", UserID: "u1", Description: "Gehalt", Amount: decimal.NewFromInt(2500),
			Frequency: core.Monthly, PaymentDay: 1, Recurring: true, Date: &jan,
		}},
		Expenses: []core.Expense{{
			ID: "e1", UserID: "u1", Description: "Miete", Amount: decimal.RequireFromString("900.5"),
			Category: "Miete", Subcategory: "Miete", Recurring: true, Frequency: core.Monthly,
			Date: core.NewDate(2025, 1, 3), Shared: true,
		}},
		SavingsGoals: []core.SavingsGoal{{ID: "g1", UserID: "u1", MonthlyTarget: decimal.NewFromInt(300)}},
	})
	require.NoError(t, err)
	return s
}

func TestExportDocument(t *testing.T) {
	doc, err := Export(context.Background(), seededStore(t), exportTime)
	require.NoError(t, err)
	assert.Equal(t, Version, doc.Version)

	data, err := doc.Encode()
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "1.0", generic["version"])
	assert.Equal(t, "2025-04-02T08:15:00Z", generic["exportDate"])
	for _, key := range []string{"users", "incomes", "expenses", "savingsGoals"} {
		assert.IsType(t, []any{}, generic[key], key)
	}
	expense := generic["expenses"].([]any)[0].(map[string]any)
	assert.Equal(t, 900.5, expense["amount"], "amounts are JSON numbers")
	assert.Equal(t, "2025-01-03", expense["date"])
	assert.Equal(t, true, expense["isShared"])
}

func TestExportEmptyStoreHasArrays(t *testing.T) {
	doc, err := Export(context.Background(), memory.New(), exportTime)
	require.NoError(t, err)
	data, err := doc.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"users": []`)
	assert.Contains(t, string(data), `"savingsGoals": []`)
}

func TestExportImportRestoresStore(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t)
	doc, err := Export(ctx, src, exportTime)
	require.NoError(t, err)
	data, err := doc.Encode()
	require.NoError(t, err)

	dst := memory.New()
	res := Import(ctx, dst, data)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "data imported successfully: 1 users, 1 incomes, 1 expenses, 1 savings goals", res.Message)

	want, err := storage.Load(ctx, src)
	require.NoError(t, err)
	got, err := storage.Load(ctx, dst)
	require.NoError(t, err)

	assert.Equal(t, want.Users[0].ID, got.Users[0].ID)
	assert.True(t, want.Users[0].CreatedAt.Equal(got.Users[0].CreatedAt))
	assert.True(t, want.Expenses[0].Amount.Equal(got.Expenses[0].Amount))
	assert.Equal(t, want.Expenses[0].Date.String(), got.Expenses[0].Date.String())
	require.NotNil(t, got.Incomes[0].Date)
	assert.Equal(t, "2025-01-01", got.Incomes[0].Date.String())
	assert.True(t, got.SavingsGoals[0].MonthlyTarget.Equal(decimal.NewFromInt(300)))
}

func TestImportFailuresLeaveStoreUntouched(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", `{"users": [`, MsgProcessingFailed},
		{"missing users", `{"incomes": []}`, MsgUsersMissing},
		{"users not an array", `{"users": {"id": "u1"}}`, MsgUsersMissing},
		{"users null", `{"users": null}`, MsgUsersMissing},
		{"top level array", `[]`, MsgProcessingFailed},
		{"bad amount", `{"users": [{"id":"u1","username":"a"}], "expenses": [{"id":"e","userId":"u1","amount":"viel"}]}`, MsgProcessingFailed},
		{"unknown frequency", `{"users": [{"id":"u1","username":"a"}], "incomes": [{"id":"i","userId":"u1","description":"x","amount":5,"frequency":"daily"}]}`, "invalid data: income 0: invalid frequency: \"daily\""},
		{"orphan expense", `{"users": [{"id":"u1","username":"a"}], "expenses": [{"id":"e","userId":"u9","description":"x","amount":5,"category":"c","date":"2025-01-01"}]}`, ""},
		{"duplicate username", `{"users": [{"id":"u1","username":"Anna"},{"id":"u2","username":"anna"}]}`, "invalid data: duplicate username \"anna\""},
		{"expense without date", `{"users": [{"id":"u1","username":"a"}], "expenses": [{"id":"e","userId":"u1","description":"x","amount":5,"category":"c"}]}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := seededStore(t)

			res := Import(ctx, s, []byte(tt.raw))

			assert.False(t, res.Success)
			if tt.want != "" {
				assert.Equal(t, tt.want, res.Message)
			} else {
				assert.Contains(t, res.Message, "invalid data")
			}
			users, err := s.Users(ctx)
			require.NoError(t, err)
			assert.Len(t, users, 1, "store must be untouched")
			expenses, err := s.Expenses(ctx)
			require.NoError(t, err)
			assert.Len(t, expenses, 1)
		})
	}
}

func TestImportResolvesDefaults(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	raw := `{
		"users": [{"id": "u2", "username": "Ben", "color": "#10B981", "isSetupComplete": true, "createdAt": "2025-01-05T09:00:00.000Z"}],
		"incomes": [{"id": "i2", "userId": "u2", "description": "Rente", "amount": 1200, "paymentDay": 0}],
		"expenses": [{"id": "e2", "userId": "u2", "description": "Bahn", "amount": 0, "category": "Transport", "isRecurring": true, "date": "2025-02-10"}],
		"savingsGoals": [
			{"id": "g2", "userId": "u2"},
			{"id": "g3", "userId": "u2", "monthlyTarget": 150}
		]
	}`

	res := Import(ctx, s, []byte(raw))
	require.True(t, res.Success, res.Message)

	snap, err := storage.Load(ctx, s)
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "u2", snap.Users[0].ID)

	inc := snap.Incomes[0]
	assert.Equal(t, core.Monthly, inc.Frequency)
	assert.True(t, inc.Recurring)
	assert.Equal(t, 1, inc.PaymentDay)

	e := snap.Expenses[0]
	assert.Equal(t, core.Monthly, e.Frequency)
	assert.Equal(t, "Transport", e.Subcategory)
	assert.True(t, e.Amount.IsZero(), "zero amounts are placeholders")

	require.Len(t, snap.SavingsGoals, 1)
	assert.Equal(t, "g3", snap.SavingsGoals[0].ID)
	assert.True(t, snap.SavingsGoals[0].MonthlyTarget.Equal(decimal.NewFromInt(150)))
}

func TestImportRepeatedIDsKeepLastEntry(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	raw := `{
		"users": [
			{"id": "u2", "username": "Ben", "color": "#10B981"},
			{"id": "u3", "username": "Clara"},
			{"id": "u2", "username": "ben", "color": "#EF4444"}
		],
		"incomes": [
			{"id": "i2", "userId": "u2", "description": "Rente", "amount": 1200},
			{"id": "i2", "userId": "u2", "description": "Rente neu", "amount": 1300}
		],
		"expenses": [
			{"id": "e2", "userId": "u2", "description": "Bahn", "amount": 49, "category": "Transport", "date": "2025-02-10"},
			{"id": "e3", "userId": "u3", "description": "Kino", "amount": 12, "category": "Freizeit", "date": "2025-02-11"},
			{"id": "e2", "userId": "u2", "description": "Bahn", "amount": 58, "category": "Transport", "date": "2025-02-10"}
		]
	}`

	res := Import(ctx, s, []byte(raw))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "data imported successfully: 2 users, 1 incomes, 2 expenses, 0 savings goals", res.Message)

	snap, err := storage.Load(ctx, s)
	require.NoError(t, err)
	require.Len(t, snap.Users, 2)
	require.Len(t, snap.Incomes, 1)
	require.Len(t, snap.Expenses, 2)

	ben, err := s.UserByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "ben", ben.Username)
	assert.Equal(t, "#EF4444", ben.Color)
	assert.Equal(t, "Rente neu", snap.Incomes[0].Description)
	for _, e := range snap.Expenses {
		if e.ID == "e2" {
			assert.True(t, e.Amount.Equal(decimal.NewFromInt(58)))
		}
	}
}

func TestImportWithoutOptionalCollections(t *testing.T) {
	s := seededStore(t)
	res := Import(context.Background(), s, []byte(`{"users": []}`))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "data imported successfully: 0 users, 0 incomes, 0 expenses, 0 savings goals", res.Message)
}

func TestFileSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	saver := FileSaver{Dir: dir}

	name, err := ExportTo(context.Background(), seededStore(t), saver, exportTime)
	require.NoError(t, err)
	assert.Equal(t, "haushaltskasse-backup-2025-04-02.json", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	res := Import(context.Background(), memory.New(), data)
	assert.True(t, res.Success, res.Message)

	// Same day overwrites.
	_, err = ExportTo(context.Background(), memory.New(), saver, exportTime)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
