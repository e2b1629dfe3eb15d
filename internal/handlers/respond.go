// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/stockroom/internal/core/domain"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, ErrorResponse{Error: message})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingRequiredField):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs and renders an error returned by the service.
// Server errors are logged at error level and their details are not exposed.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
		message := "internal server error"
		if errors.Is(err, domain.ErrStorageWrite) {
			message = "failed to save inventory"
		}
		respondError(w, logger, status, message)
		return
	}

	logger.DebugContext(r.Context(), msg, slog.String("error", err.Error()))
	if status == http.StatusNotFound {
		respondError(w, logger, status, domain.ErrNotFound.Error())
		return
	}
	respondError(w, logger, status, err.Error())
}

// MethodNotAllowed answers every request that matches no route
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, slog.Default(), http.StatusMethodNotAllowed, "method not allowed")
}
