package web

// errors.go turns service errors into JSON error responses.
//
// The status code comes from the sentinel the error wraps; the body comes
// from core.MapError so clients never see driver or file system detail.
// The full error is logged with the request ID for correlation.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Action string `json:"action,omitempty"`
}

var statusMappings = []struct {
	target error
	status int
}{
	{core.ErrValidation, http.StatusBadRequest},
	{core.ErrConflict, http.StatusBadRequest},
	{core.ErrNoFile, http.StatusBadRequest},
	{core.ErrInvalidFile, http.StatusBadRequest},
	{core.ErrNotFound, http.StatusNotFound},
	{core.ErrNothingToExport, http.StatusNotFound},
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrTooManyImports, http.StatusServiceUnavailable},
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	for _, m := range statusMappings {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its client-safe form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		err = errors.Join(core.ErrFileTooLarge, err)
	}
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	writeJSON(w, status, ErrorResponse{Error: msg.Message, Code: msg.Code, Action: msg.Action})
}

// writeJSON writes v with the given status. Encoding errors can only be
// logged because the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
