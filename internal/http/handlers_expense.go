package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

const defaultMethod = "Cash"

type expenseRequest struct {
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        *core.Date `json:"date,omitempty"`
	Method      string     `json:"method"`
}

type expensesResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Total    core.Money     `json:"total"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Ledger.ListExpenses(r.Context(), sessionFrom(r.Context()).UserID)
	if err != nil {
		fail(w, r, "list expenses", err)
		return
	}
	var total core.Money
	for _, e := range list {
		total = total.Add(e.Amount)
	}
	if list == nil {
		list = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expensesResponse{Expenses: list, Total: total})
}

// handleCreateExpense records a dashboard expense. The date defaults to
// today and the method to cash.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "create expense", err)
		return
	}

	e := core.Expense{
		UserID:      sessionFrom(r.Context()).UserID,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Date:        core.DateOf(s.deps.Now()),
		Method:      sanitizeInput(req.Method),
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if strings.TrimSpace(e.Method) == "" {
		e.Method = defaultMethod
	}

	receipt, err := s.deps.Records.CreateExpense(r.Context(), e)
	if err != nil {
		fail(w, r, "create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, "delete expense", err)
		return
	}
	msg, err := s.deps.Records.DeleteExpense(r.Context(), sessionFrom(r.Context()).UserID, id)
	if err != nil {
		fail(w, r, "delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}
