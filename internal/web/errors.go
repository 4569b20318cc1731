package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted appropriately based on request type (HTMX, JSON, or HTML)
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status code is derived from the error with statusFor
//  4. Error is mapped via core.MapError to get user-friendly message
//  5. User message is rendered in appropriate format for the client
//
// Page handlers do not use respondError: they re-render the page with the
// message as a flash (see renderPageError).

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cleanlytics/internal/chart"
	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/logging"
	"github.com/JonMunkholm/cleanlytics/internal/recipe"
	"github.com/JonMunkholm/cleanlytics/internal/warehouse"
	"github.com/JonMunkholm/cleanlytics/internal/web/templates"
)

var (
	errNoFile       = errors.New("no file provided")
	errUnknownPanel = errors.New("unknown panel")
	errBadBody      = errors.New("invalid request body")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// statusFor picks the HTTP status of an error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, errUnknownPanel):
		return http.StatusNotFound
	case errors.Is(err, core.ErrRenameCollision), errors.Is(err, core.ErrNoDataset),
		errors.Is(err, core.ErrNoMapping):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotCategorical), errors.Is(err, core.ErrWrongKind),
		errors.Is(err, chart.ErrNothingToRender):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSessionLimit), errors.Is(err, core.ErrTooManyUploads),
		errors.Is(err, warehouse.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrUnsupportedFile),
		errors.Is(err, errNoFile), errors.Is(err, errBadBody),
		errors.Is(err, recipe.ErrInvalid), errors.Is(err, warehouse.ErrInvalidTable),
		errors.Is(err, warehouse.ErrInvalidMode):
		return http.StatusBadRequest
	}

	// Remaining user-facing errors (parse failures, bad parameters) are the
	// client's; anything unrecognised is ours.
	if core.IsUserFacing(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)
	logError(r, err, statusCode, userMsg)

	if isHTMX(r) {
		renderErrorPartial(w, r, userMsg, statusCode)
	} else if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode, errorDetails(err))
	} else {
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// logError logs server faults at error level and client mistakes at info.
func logError(r *http.Request, err error, statusCode int, msg core.UserMessage) {
	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
		return
	}
	logger.Info("request rejected", args...)
}

// errorDetails returns structured context for errors that carry it.
func errorDetails(err error) any {
	var collision *core.CollisionError
	if errors.As(err, &collision) {
		return map[string]any{"collisions": collision.Targets}
	}
	return nil
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Details: details,
	})
}

// respondErrorHTML writes a plain text error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
