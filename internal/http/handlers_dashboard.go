package http

import (
	"net/http"

	"fintrack/internal/core"
)

const summaryCategoryLimit = 50

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
}

type dailyResponse struct {
	Days []core.DailyTotals `json:"days"`
}

type summaryResponse struct {
	core.Summary
	ChartData map[string]float64 `json:"chart_data,omitempty"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Ledger.ListTransactions(r.Context(), sessionFrom(r.Context()).UserID)
	if err != nil {
		fail(w, r, "list transactions", err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs})
}

// handleDailyTransactions groups mirror rows per day with daily income,
// expense and net.
func (s *Server) handleDailyTransactions(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query())
	if err != nil {
		fail(w, r, "daily transactions", err)
		return
	}
	txs, err := s.deps.Ledger.ListTransactions(r.Context(), sessionFrom(r.Context()).UserID)
	if err != nil {
		fail(w, r, "daily transactions", err)
		return
	}

	kept := txs[:0:0]
	for _, t := range txs {
		if rng.Contains(t.Date) {
			kept = append(kept, t)
		}
	}
	days := core.GroupByDay(kept)
	if days == nil {
		days = []core.DailyTotals{}
	}
	writeJSON(w, http.StatusOK, dailyResponse{Days: days})
}

// handleSummary reports totals, balance and the category breakdown used by
// the dashboard charts. Totals honour the optional from/to range.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := sessionFrom(ctx).UserID
	rng, err := parseRange(r.URL.Query())
	if err != nil {
		fail(w, r, "summary", err)
		return
	}

	income, err := s.deps.Ledger.SumIncome(ctx, userID, rng)
	if err != nil {
		fail(w, r, "summary", err)
		return
	}
	expenses, err := s.deps.Ledger.SumExpenses(ctx, userID, "", rng)
	if err != nil {
		fail(w, r, "summary", err)
		return
	}
	rows, err := s.deps.Ledger.ExpenseBreakdown(ctx, userID, summaryCategoryLimit)
	if err != nil {
		fail(w, r, "summary", err)
		return
	}
	if rows == nil {
		rows = []core.CategoryAmount{}
	}

	sum := core.NewSummary(income, expenses, rows)
	writeJSON(w, http.StatusOK, summaryResponse{Summary: sum, ChartData: sum.ChartData()})
}
