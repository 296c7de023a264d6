package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field names the offending input for validation errors.
	Field string `json:"field,omitempty"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeJSON encodes v with the given status. Encoding errors are logged;
// the status line has already been sent by then.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "error", err)
	}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "trip not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure,
// naming the field when the error carries one.
func validationBody(err error) ErrorResponse {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: ve.Message, Field: ve.Field}}
	}
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: err.Error()}}
}

// writeBadRequest rejects input the handler could not parse.
func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusUnprocessableEntity, requestBody(message))
}

// writeServiceError maps a service error onto a status code and error body.
// notFound is the message used for domain.ErrNotFound.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, r, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{Code: "unauthorized", Message: "sign in required"}})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrSubmitInProgress), errors.Is(err, domain.ErrDuplicateSubmission):
		writeJSON(w, r, http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "conflict", Message: "an identical request is still in progress"}})
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeJSON(w, r, http.StatusServiceUnavailable, ErrorResponse{Error: ErrorDetail{Code: "store_unavailable", Message: "storage is temporarily unavailable, try again"}})
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
	}
}
