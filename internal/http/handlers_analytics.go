package http

import (
	"fmt"
	"net/http"

	"haushaltskasse/internal/analytics"
	"haushaltskasse/internal/ledger"
	applog "haushaltskasse/internal/log"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	highlights, err := s.svc.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, highlights)
}

// handleMonthlyAnalytics serves the breakdown. Without ?projection the
// configured default applies.
func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	var projection analytics.IncomeProjection
	if raw := r.URL.Query().Get("projection"); raw != "" {
		p, ok := analytics.ParseIncomeProjection(raw)
		if !ok {
			s.writeError(w, r, applog.OpReport, fmt.Errorf("%w: unknown projection %q", ledger.ErrValidation, raw))
			return
		}
		projection = p
	}
	report, err := s.svc.MonthlyAnalytics(r.Context(), projection)
	if err != nil {
		s.writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	view, err := analytics.ParseChartView(r.URL.Query().Get("view"))
	if err != nil {
		s.writeError(w, r, applog.OpReport, fmt.Errorf("%w: %w", ledger.ErrValidation, err))
		return
	}
	slices, err := s.svc.CategoryChart(r.Context(), view)
	if err != nil {
		s.writeError(w, r, applog.OpReport, err)
		return
	}
	if slices == nil {
		slices = []analytics.ChartSlice{}
	}
	writeJSON(w, http.StatusOK, slices)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	comparison, err := s.svc.Comparison(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}
