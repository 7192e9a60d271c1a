package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError, so all responses
// share one shape. Errors always look like
//
//	{"error": "not_found", "message": "skill not found with id abc123"}
//
// and validation errors add a "fields" object naming each bad field.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Blog posts are the largest.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // Machine-readable error type (e.g., "not_found")
	Message string            `json:"message"`          // Human-readable description
	Fields  map[string]string `json:"fields,omitempty"` // Validation errors only: field -> reason
}

// MessageResponse acknowledges an operation that has nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
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

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// writeError maps an error to a status code and sends it. This is the only
// place where error kinds become HTTP.
//
// errors.Is walks the whole chain, so a service error wrapped as
// fmt.Errorf("service/skill: updating: %w", apperror.NotFound(...)) still
// maps to 404.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown errors may carry SQL or file paths; never echo them.
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := appErr.Message
	var fields map[string]string

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
		fields = appErr.Fields
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
		errorType = "method_not_allowed"
	case errors.Is(err, apperror.ErrRateLimited):
		errorType = "rate_limited"
	case errors.Is(err, apperror.ErrUpstream):
		errorType = "upstream_error"
		logger.Error("upstream failure", slog.String("error", errors.Unwrap(appErr).Error()))
	default:
		logger.Error("unclassified application error", slog.String("error", err.Error()))
		message = "An internal error occurred"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
		Fields:  fields,
	})
}

// NotFound answers requests that match no route.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, logger, apperror.NotFoundf("no route for %s", r.URL.Path))
	}
}

// MethodNotAllowed answers requests for a known path with a method it does
// not serve.
func MethodNotAllowed(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, logger, apperror.MethodNotAllowed(r.Method, r.URL.Path))
	}
}

// Unauthorized is the denial used by auth.RequireAuth.
func Unauthorized(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, logger, apperror.Unauthorized("authentication required"))
	}
}

// decodeJSON reads the request body into v. A malformed, empty or oversized
// body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON")
		}
	}
	return nil
}
