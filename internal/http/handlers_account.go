package http

import (
	"net/http"

	"centime/internal/services"
)

type createAccountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type updateAccountRequest struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Balance  *string `json:"balance"`
	Currency *string `json:"currency"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := s.accounts.Create(r.Context(), userID(r), services.CreateAccountParams{
		Name:     sanitizeInput(req.Name),
		Type:     req.Type,
		Balance:  req.Balance,
		Currency: req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	account, err := s.accounts.Update(r.Context(), r.PathValue("id"), userID(r), services.UpdateAccountParams{
		Name:     req.Name,
		Type:     req.Type,
		Balance:  req.Balance,
		Currency: req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
