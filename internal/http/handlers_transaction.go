package http

import (
	"net/http"

	"centime/internal/services"
)

type createTransactionRequest struct {
	AccountID   string `json:"accountId"`
	CategoryID  string `json:"categoryId"`
	RecipientID string `json:"recipientId"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
}

// updateTransactionRequest has no recipientId: the recipient reference is
// immutable after creation.
type updateTransactionRequest struct {
	AccountID   *string `json:"accountId"`
	CategoryID  *string `json:"categoryId"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Amount      *string `json:"amount"`
	Type        *string `json:"type"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.transactions.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	transaction, err := s.transactions.Create(r.Context(), userID(r), services.CreateTransactionParams{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		RecipientID: req.RecipientID,
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Type:        req.Type,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transaction)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := s.transactions.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	transaction, err := s.transactions.Update(r.Context(), r.PathValue("id"), userID(r), services.UpdateTransactionParams{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
