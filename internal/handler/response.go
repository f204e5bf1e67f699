package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"shelterdb/internal/database"
	"shelterdb/internal/repository"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError maps repository and database errors onto HTTP statuses:
// validation failures are the caller's to fix (400), collaborator
// failures are upstream (502), anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrDatabase), errors.Is(err, database.ErrConnection):
		status = http.StatusBadGateway
	}
	WriteJSON(w, status, errorResponse{Error: err.Error()})
}

// DecodeJSON decodes a JSON request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
