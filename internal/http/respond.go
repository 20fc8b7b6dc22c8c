package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"centime/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps the error taxonomy to HTTP status codes. Internal errors
// get a generic message; their detail was already logged at the service
// boundary.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrForbidden):
		writeErrorMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
