package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/analytics"
	"haushaltskasse/internal/backup"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/ledger"
	"haushaltskasse/internal/sheets"
	"haushaltskasse/internal/storage"
)

// LedgerWorker keeps the derived artefacts of the ledger current: a rolling
// backup file and, when configured, the spreadsheet report.
type LedgerWorker struct {
	store      storage.Store
	saver      backup.Saver
	report     sheets.ReportWriter
	projection analytics.IncomeProjection
	now        func() time.Time
}

// NewLedgerWorker creates a worker. report may be nil.
func NewLedgerWorker(store storage.Store, saver backup.Saver, report sheets.ReportWriter, projection analytics.IncomeProjection) *LedgerWorker {
	return &LedgerWorker{
		store:      store,
		saver:      saver,
		report:     report,
		projection: projection,
		now:        time.Now,
	}
}

// HandleLedgerChanged processes one change event from AMQP.
func (w *LedgerWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"action", msg.Action,
		"kind", msg.Kind,
		"user_id", msg.UserID,
		"record_id", msg.RecordID)

	return w.Refresh(ctx)
}

// Refresh writes the backup and the report. Both are attempted; a failing
// backup does not skip the report.
func (w *LedgerWorker) Refresh(ctx context.Context) error {
	var errs []error

	name, err := backup.ExportTo(ctx, w.store, w.saver, w.now())
	if err != nil {
		errs = append(errs, fmt.Errorf("write backup: %w", err))
	} else {
		slog.InfoContext(ctx, "Backup refreshed", "file", name)
	}

	if w.report != nil {
		if err := w.RefreshReport(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// RefreshReport renders every user's monthly report into the spreadsheet.
func (w *LedgerWorker) RefreshReport(ctx context.Context) error {
	if w.report == nil {
		slog.DebugContext(ctx, "No report writer configured, skipping report")
		return nil
	}

	reports, err := w.userReports(ctx)
	if err != nil {
		return err
	}
	ref, err := sheets.Publish(ctx, w.report, reports, w.now())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Report refreshed", "users", len(reports), "range", ref)
	return nil
}

func (w *LedgerWorker) userReports(ctx context.Context) ([]sheets.UserReport, error) {
	snap, err := storage.Load(ctx, w.store)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	incomes := make(map[string][]core.Income)
	for _, inc := range snap.Incomes {
		incomes[inc.UserID] = append(incomes[inc.UserID], inc)
	}
	expenses := make(map[string][]core.Expense)
	for _, e := range snap.Expenses {
		expenses[e.UserID] = append(expenses[e.UserID], e)
	}

	now := w.now()
	reports := make([]sheets.UserReport, 0, len(snap.Users))
	for _, u := range snap.Users {
		reports = append(reports, sheets.UserReport{
			Username: u.Username,
			Report:   ledger.BuildMonthlyReport(expenses[u.ID], incomes[u.ID], now, w.projection),
		})
	}
	return reports, nil
}

// StartupCheck refreshes everything once so a worker that was down catches up.
func (w *LedgerWorker) StartupCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup refresh")
	if err := w.Refresh(ctx); err != nil {
		return fmt.Errorf("startup refresh: %w", err)
	}
	return nil
}
