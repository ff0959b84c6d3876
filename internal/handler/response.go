package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the API has one
// content type and one error shape:
//
//	{"error": "not_found", "message": "deck not found with id abc123"}
//
// Partial ownership failures also carry the deck id so a client can show
// which deck was left orphaned or dangling:
//
//	{"error": "partial_link", "message": "...", "id": "d7..."}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/vocapp/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Decks with a few hundred words fit
// comfortably.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending input field, for validation errors
	ID      string `json:"id,omitempty"`    // Resource involved, for partial failures
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status and machine-readable
// type. The service layer knows nothing about HTTP; this is the only place
// the translation happens.
//
// Partial failures are matched first: their cause is also in the chain and
// may itself be a typed error such as NotFound.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrPartialLink):
		return http.StatusBadGateway, "partial_link"
	case errors.Is(err, apperror.ErrPartialUnlink):
		return http.StatusBadGateway, "partial_unlink"
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrSessionEnded):
		return http.StatusConflict, "session_ended"
	case errors.Is(err, apperror.ErrEmptyDeck):
		return http.StatusUnprocessableEntity, "empty_deck"
	case errors.Is(err, apperror.ErrAuthTimeout):
		return http.StatusGatewayTimeout, "auth_timeout"
	case errors.Is(err, apperror.ErrProfileLoadTimeout):
		return http.StatusGatewayTimeout, "profile_load_timeout"
	case errors.Is(err, apperror.ErrConfiguration):
		return http.StatusServiceUnavailable, "configuration_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends it.
//
// errors.As finds the *AppError anywhere in the chain, so a service may
// wrap it with fmt.Errorf("...: %w", err) and the handler still sees the
// typed error and its human-readable message.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := errorStatus(err)
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
			ID:      appErr.ID,
		})
		return
	}

	// Unknown error. Never expose its text: it may contain SQL, file paths
	// or connection strings.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so typos surface as 400s instead of silently
// empty values.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}
