package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/upstream"
	"github.com/Lixing-Zhang/storefront/pkg/validate"
	"github.com/getsentry/sentry-go"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, ErrorResponse{Error: message}, logger)
}

// WriteFieldErrors answers 422 with errors the form shows next to its fields.
func WriteFieldErrors(w http.ResponseWriter, fieldErrors map[string]string, logger *slog.Logger) {
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:       "Please correct the errors below.",
		FieldErrors: fieldErrors,
	}, logger)
}

// writeUpstreamError maps the upstream client's error types to responses.
// Anything it does not recognise is a 500 and is reported to Sentry.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var verr *upstream.ValidationError
	var nferr *upstream.NotFoundError

	switch {
	case errors.As(err, &verr):
		WriteFieldErrors(w, verr.FieldErrors, logger)
	case errors.As(err, &nferr):
		WriteError(w, http.StatusNotFound, "Not found", logger)
	case errors.Is(err, upstream.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "Please sign in again", logger)
	case errors.Is(err, upstream.ErrTransport):
		logger.WarnContext(r.Context(), "upstream unavailable", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadGateway, "Something went wrong. Please try again.", logger)
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

// bindJSON decodes and validates the body, answering the request itself on
// failure.
func bindJSON(w http.ResponseWriter, r *http.Request, v *validate.Validator, dst any, logger *slog.Logger) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", logger)
		return false
	}
	if errs := v.Struct(dst); errs != nil {
		WriteFieldErrors(w, errs, logger)
		return false
	}
	return true
}
