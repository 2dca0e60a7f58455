package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/ledger"
	applog "haushaltskasse/internal/log"
)

type incomeRequest struct {
	Description string `json:"description"`
	Amount      amount `json:"amount"`
	Frequency   string `json:"frequency"`
	PaymentDay  int    `json:"paymentDay"`
	Category    string `json:"category"`
	Recurring   *bool  `json:"isRecurring"`
	Date        string `json:"date"`
}

type expenseRequest struct {
	Description string `json:"description"`
	Amount      amount `json:"amount"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Recurring   bool   `json:"isRecurring"`
	Frequency   string `json:"frequency"`
	Date        string `json:"date"`
	Shared      bool   `json:"isShared"`
}

type savingsGoalRequest struct {
	MonthlyTarget amount `json:"monthlyTarget"`
	Description   string `json:"description"`
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.svc.Incomes(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if incomes == nil {
		incomes = []core.Income{}
	}
	writeJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	income, err := s.svc.AddIncome(r.Context(), ledger.IncomeInput{
		Description: sanitizeInput(req.Description),
		Amount:      string(req.Amount),
		Frequency:   req.Frequency,
		PaymentDay:  req.PaymentDay,
		Category:    sanitizeInput(req.Category),
		Recurring:   req.Recurring,
		Date:        req.Date,
	})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, income)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteIncome(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Expenses(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	expense, err := s.svc.AddExpense(r.Context(), ledger.ExpenseInput{
		Description: sanitizeInput(req.Description),
		Amount:      string(req.Amount),
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Recurring:   req.Recurring,
		Frequency:   req.Frequency,
		Date:        req.Date,
		Shared:      req.Shared,
	})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpense(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSavingsGoal answers null when the user has no goal.
func (s *Server) handleGetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.svc.SavingsGoal(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleSetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	var req savingsGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	goal, err := s.svc.SetSavingsGoal(r.Context(), ledger.SavingsGoalInput{
		MonthlyTarget: string(req.MonthlyTarget),
		Description:   sanitizeInput(req.Description),
	})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}
