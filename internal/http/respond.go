package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"haushaltskasse/internal/ledger"
	applog "haushaltskasse/internal/log"
	"haushaltskasse/internal/session"
	"haushaltskasse/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUserNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoUser), errors.Is(err, storage.ErrUnknownUser):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError answers with the status of err. Internal errors are logged and
// their text is not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.errors.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
			applog.NewFields().WithRequestID(requestID(r)))
		writeErrorMessage(w, status, "internal server error")
		return
	}
	writeErrorMessage(w, status, err.Error())
}
