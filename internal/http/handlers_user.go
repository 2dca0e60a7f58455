package http

import (
	"context"
	"net/http"
	"strings"

	"haushaltskasse/internal/core"
	applog "haushaltskasse/internal/log"
	"haushaltskasse/internal/session"
)

// UserIDHeader carries the id of the acting user.
const UserIDHeader = "X-User-ID"

// requireUser resolves the acting user and stores it in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if id == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
			return
		}
		user, err := s.lookupUser(r.Context(), id)
		if err != nil {
			if statusFor(err) == http.StatusNotFound {
				writeErrorMessage(w, http.StatusUnauthorized, "unknown user")
				return
			}
			s.writeError(w, r, applog.OpRead, err)
			return
		}
		ctx := session.WithUser(r.Context(), user)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) lookupUser(ctx context.Context, id string) (core.User, error) {
	if user, ok := s.users.Get(id); ok {
		return user, nil
	}
	user, err := s.svc.UserByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	s.users.Set(id, user)
	return user, nil
}

type registerRequest struct {
	Username string `json:"username"`
	Color    string `json:"color"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	user, err := s.svc.Register(r.Context(), sanitizeInput(req.Username), sanitizeInput(req.Color))
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	user, err := s.svc.Login(r.Context(), sanitizeInput(req.Username))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := session.CurrentUser(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSetupComplete(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.CompleteSetup(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	s.users.Set(user.ID, user)
	writeJSON(w, http.StatusOK, user)
}

type categoriesResponse struct {
	Expense []core.ExpenseCategory `json:"expense"`
	Income  []string               `json:"income"`
	Colors  []string               `json:"colors"`
}

// handleCategories lists the category catalogs and the user color palette.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Expense: core.ExpenseCategories,
		Income:  core.IncomeCategories,
		Colors:  core.UserColors,
	})
}
