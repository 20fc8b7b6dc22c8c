package http

import (
	"errors"
	"net/http"
	"time"

	"centime/internal/services"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.users.Register(r.Context(), services.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: sanitizeInput(req.FirstName),
		LastName:  sanitizeInput(req.LastName),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := s.users.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
