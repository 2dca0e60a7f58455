package http

import (
	"errors"
	"io"
	"net/http"

	"haushaltskasse/internal/backup"
	applog "haushaltskasse/internal/log"
)

// handleExport downloads the whole store as a backup document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	doc, err := backup.Export(r.Context(), s.svc.Store(), now)
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	data, err := doc.Encode()
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(now)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport replaces the store with the uploaded document. A rejected
// document answers 422 with the import result.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.ObserveImport(false)
			writeJSON(w, http.StatusRequestEntityTooLarge, backup.Result{Message: "import file too large"})
			return
		}
		s.writeError(w, r, applog.OpImport, err)
		return
	}

	res := backup.Import(r.Context(), s.svc.Store(), raw)
	s.metrics.ObserveImport(res.Success)
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	s.users.Purge()
	s.svc.NotifyImported(r.Context())
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearAll(r.Context()); err != nil {
		s.writeError(w, r, applog.OpClear, err)
		return
	}
	s.users.Purge()
	w.WriteHeader(http.StatusNoContent)
}
