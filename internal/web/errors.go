package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The HTTP status is chosen from the error's sentinel via statusFor
//  4. Error is mapped via core.MapError to get a user-friendly message
//  5. Technical error + context is logged with request ID for correlation

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/ingest"
	"github.com/JonMunkholm/dataquality/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps engine and ingest errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidOption):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnsupportedMethod):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidConfig),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrParseFailure),
		errors.Is(err, core.ErrNoColumns),
		errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error server-side and writes the
// user-facing message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondErrorStatus(w, r, err, statusFor(err))
}

// respondErrorStatus is respondError with an explicit status, for request
// validation failures that never reach the service.
func respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// badRequest reports a malformed request body or parameter.
func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respondErrorStatus(w, r, errors.Join(core.ErrInvalidInput, errors.New(msg)), http.StatusBadRequest)
}
