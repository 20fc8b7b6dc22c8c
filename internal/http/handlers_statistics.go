package http

import (
	"net/http"

	"centime/internal/core"
)

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	totals, err := s.statistics.ExpensesByCategory(r.Context(), userID(r), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleIncomesByCategory(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	totals, err := s.statistics.IncomesByCategory(r.Context(), userID(r), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleExpensesByAccount(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	totals, err := s.statistics.ExpensesByAccount(r.Context(), userID(r), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleMonthlyBalance(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		writeError(w, err)
		return
	}
	balances, err := s.statistics.MonthlyBalance(r.Context(), userID(r), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

type expenseTrendsRequest struct {
	Periods []core.Period `json:"periods"`
}

func (s *Server) handleExpenseTrends(w http.ResponseWriter, r *http.Request) {
	var req expenseTrendsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	totals, err := s.statistics.ExpenseTrends(r.Context(), userID(r), req.Periods)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleAnnualSummary(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := s.statistics.AnnualSummary(r.Context(), userID(r), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAccountBreakdown(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	breakdown, err := s.statistics.AccountBreakdown(r.Context(), r.PathValue("id"), userID(r), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	breakdown, err := s.statistics.CategoryBreakdown(r.Context(), r.PathValue("id"), userID(r), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleRecipientBreakdown(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	breakdown, err := s.statistics.RecipientBreakdown(r.Context(), r.PathValue("id"), userID(r), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}
