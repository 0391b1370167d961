package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Envelope wraps every successful payload.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorBody is the shape of every failed response. Details is only set for
// request validation failures.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// JSON writes body with the given status code
func JSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// headers are already out, nothing left to tell the client
		log.Warn().Err(err).Msg("failed to encode response body")
	}
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorBody{Error: message})
}

// ValidationError writes a 400 listing the rejected fields
func ValidationError(w http.ResponseWriter, message string, details []string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: message, Details: details})
}

// Success writes a 200 with data inside the envelope
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with data inside the envelope
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a bare 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
