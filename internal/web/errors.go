package web

// errors.go provides unified error responses for the web layer.
//
// Every error is logged with its technical detail and request id, then
// mapped through core.MapError to a user message rendered as JSON or, for
// HTMX requests, as an alert fragment.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/JonMunkholm/PeopleImport/internal/export"
	"github.com/JonMunkholm/PeopleImport/internal/web/templates"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	errRateLimited    = errors.New("rate limit exceeded")
	errInvalidRequest = errors.New("invalid request")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a handler error.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSessionNotReady),
		errors.Is(err, core.ErrNothingToUndo),
		errors.Is(err, core.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrMissingRule),
		errors.Is(err, core.ErrUnknownHook),
		errors.Is(err, core.ErrDuplicateTarget),
		errors.Is(err, core.ErrRowOutOfRange),
		errors.Is(err, core.ErrInvalidPattern),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, core.ErrNoHeaders),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message with the status
// statusFor chooses.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondStatus(w, r, err, statusFor(err))
}

func respondStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
		return
	}

	writeJSONStatus(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
