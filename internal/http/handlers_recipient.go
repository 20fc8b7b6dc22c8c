package http

import (
	"net/http"

	"centime/internal/services"
)

type createRecipientRequest struct {
	Name string `json:"name"`
}

type updateRecipientRequest struct {
	Name *string `json:"name"`
}

func (s *Server) handleListRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := s.recipients.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipients)
}

func (s *Server) handleCreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req createRecipientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recipient, err := s.recipients.Create(r.Context(), userID(r), services.CreateRecipientParams{
		Name: sanitizeInput(req.Name),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipient)
}

func (s *Server) handleGetRecipient(w http.ResponseWriter, r *http.Request) {
	recipient, err := s.recipients.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipient)
}

func (s *Server) handleUpdateRecipient(w http.ResponseWriter, r *http.Request) {
	var req updateRecipientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recipient, err := s.recipients.Update(r.Context(), r.PathValue("id"), userID(r), services.UpdateRecipientParams{
		Name: req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipient)
}

func (s *Server) handleDeleteRecipient(w http.ResponseWriter, r *http.Request) {
	if err := s.recipients.Delete(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
