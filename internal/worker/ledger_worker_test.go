package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/analytics"
	"haushaltskasse/internal/backup"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"
	"haushaltskasse/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)

type recordingWriter struct {
	calls int
	rows  [][]any
	err   error
}

func (w *recordingWriter) WriteReport(_ context.Context, rows [][]any) (string, error) {
	w.calls++
	w.rows = rows
	return "'Report'!A1", w.err
}

type failingSaver struct{}

func (failingSaver) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewFromSnapshot(storage.Snapshot{
		Users: []core.User{{ID: "u1", Username: "Anna"}, {ID: "u2", Username: "Ben"}},
		Incomes: []core.Income{{ID: "i1", UserID: "u1", Description: "Gehalt", Amount: decimal.NewFromInt(2000),
			Frequency: core.Monthly, PaymentDay: 1, Recurring: true}},
		Expenses: []core.Expense{
			{ID: "e1", UserID: "u1", Description: "Miete", Amount: decimal.NewFromInt(800), Category: "Wohnen",
				Frequency: core.Monthly, Date: core.NewDate(2025, 1, 2)},
			{ID: "e2", UserID: "u2", Description: "Bahn", Amount: decimal.NewFromInt(50), Category: "Transport",
				Frequency: core.Monthly, Date: core.NewDate(2025, 2, 2)},
		},
	})
	require.NoError(t, err)
	return s
}

func newWorker(t *testing.T, saver backup.Saver, w *recordingWriter) *LedgerWorker {
	t.Helper()
	var worker *LedgerWorker
	if w == nil {
		worker = NewLedgerWorker(newStore(t), saver, nil, analytics.ProjectAllMonths)
	} else {
		worker = NewLedgerWorker(newStore(t), saver, w, analytics.ProjectAllMonths)
	}
	worker.now = func() time.Time { return fixedNow }
	return worker
}

func TestHandleLedgerChanged_WritesBackupAndReport(t *testing.T) {
	dir := t.TempDir()
	writer := &recordingWriter{}
	w := newWorker(t, backup.FileSaver{Dir: dir}, writer)

	msg := amqp.NewLedgerChangedMessage(amqp.ActionSaved, amqp.KindExpense, "u1", "e1")
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))

	data, err := os.ReadFile(filepath.Join(dir, "haushaltskasse-backup-2025-02-20.json"))
	require.NoError(t, err)
	res := backup.Import(context.Background(), memory.New(), data)
	assert.True(t, res.Success, res.Message)

	assert.Equal(t, 1, writer.calls)
	var titles []any
	for _, row := range writer.rows {
		if len(row) == 1 {
			titles = append(titles, row[0])
		}
	}
	assert.Equal(t, []any{"Anna", "Ben"}, titles)
}

func TestRefresh_ReportRunsWhenBackupFails(t *testing.T) {
	writer := &recordingWriter{}
	w := newWorker(t, failingSaver{}, writer)

	err := w.Refresh(context.Background())

	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, writer.calls)
}

func TestRefresh_ReportError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("quota exceeded")}
	w := newWorker(t, backup.FileSaver{Dir: t.TempDir()}, writer)

	err := w.Refresh(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestRefresh_WithoutReportWriter(t *testing.T) {
	w := newWorker(t, backup.FileSaver{Dir: t.TempDir()}, nil)
	assert.NoError(t, w.Refresh(context.Background()))
	assert.NoError(t, w.RefreshReport(context.Background()))
}

func TestUserReportsPerUser(t *testing.T) {
	w := newWorker(t, backup.FileSaver{Dir: t.TempDir()}, &recordingWriter{})

	reports, err := w.userReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	anna := reports[0].Report
	require.Len(t, anna.Months, 1)
	assert.Equal(t, "2025-01", anna.Months[0].Key)
	assert.True(t, anna.Summary.TotalIncomes.Equal(decimal.NewFromInt(2000)))

	ben := reports[1].Report
	require.Len(t, ben.Months, 1)
	assert.Equal(t, "2025-02", ben.Months[0].Key)
	assert.True(t, ben.Summary.TotalIncomes.IsZero())
}

func TestStartupCheck(t *testing.T) {
	dir := t.TempDir()
	w := newWorker(t, backup.FileSaver{Dir: dir}, nil)

	require.NoError(t, w.StartupCheck(context.Background()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
