package http

import (
	"net/http"

	"fintrack/internal/core"
)

const defaultIncomeCategory = "Other"

type incomeRequest struct {
	Source   string     `json:"source"`
	Amount   core.Money `json:"amount"`
	Date     *core.Date `json:"date,omitempty"`
	Category string     `json:"category"`
	Notes    string     `json:"notes"`
}

type incomesResponse struct {
	Incomes []core.Income `json:"incomes"`
	Total   core.Money    `json:"total"`
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Ledger.ListIncomes(r.Context(), sessionFrom(r.Context()).UserID)
	if err != nil {
		fail(w, r, "list incomes", err)
		return
	}
	var total core.Money
	for _, in := range list {
		total = total.Add(in.Amount)
	}
	if list == nil {
		list = []core.Income{}
	}
	writeJSON(w, http.StatusOK, incomesResponse{Incomes: list, Total: total})
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "create income", err)
		return
	}

	in := core.Income{
		UserID:   sessionFrom(r.Context()).UserID,
		Source:   sanitizeInput(req.Source),
		Amount:   req.Amount,
		Date:     core.DateOf(s.deps.Now()),
		Category: sanitizeInput(req.Category),
		Notes:    sanitizeInput(req.Notes),
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	if in.Category == "" {
		in.Category = defaultIncomeCategory
	}

	receipt, err := s.deps.Records.CreateIncome(r.Context(), in)
	if err != nil {
		fail(w, r, "create income", err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, "delete income", err)
		return
	}
	msg, err := s.deps.Records.DeleteIncome(r.Context(), sessionFrom(r.Context()).UserID, id)
	if err != nil {
		fail(w, r, "delete income", err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msg})
}
