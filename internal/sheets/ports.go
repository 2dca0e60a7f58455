// Package sheets renders the monthly breakdown of every user as a spreadsheet report.
package sheets

import (
	"context"
	"time"

	"haushaltskasse/internal/ledger"
)

type (
	// UserReport is the monthly report of one household member.
	UserReport struct {
		Username string
		Report   ledger.MonthlyReport
	}

	// ReportWriter publishes the rendered report, returning a reference to
	// the written range.
	ReportWriter interface {
		WriteReport(ctx context.Context, rows [][]any) (ref string, err error)
	}
)

// Publish renders reports and hands them to w.
func Publish(ctx context.Context, w ReportWriter, reports []UserReport, generatedAt time.Time) (string, error) {
	return w.WriteReport(ctx, BuildRows(reports, generatedAt))
}
