package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request ID, then
// returned to the client as a core.UserMessage with a status derived from
// the error's category. Request validation problems (bad query parameters,
// missing upload) carry their own message under code REQ001.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// requestError is a problem with the request itself rather than its content.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// respondError logs err and writes a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		err = fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxErr.Limit)
	}

	status := statusFor(err)
	msg := userMessage(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	respondErrorJSON(w, msg, status)
}

func userMessage(err error) core.UserMessage {
	var re *requestError
	if errors.As(err, &re) {
		return core.UserMessage{
			Message: re.msg,
			Action:  "Check the request parameters",
			Code:    "REQ001",
		}
	}
	return core.MapError(err)
}

// statusFor picks the HTTP status for an error category.
func statusFor(err error) int {
	var (
		re *requestError
		se *core.SyntaxError
		ce *core.ConversionError
	)
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownRecord):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, core.ErrImportDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrImportUnsupported):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity
	case errors.As(err, &se), errors.Is(err, core.ErrEmptyInput), errors.Is(err, core.ErrConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
