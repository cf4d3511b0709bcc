package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrSensorNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidImport),
		errors.Is(err, core.ErrInvalidPageSize),
		errors.Is(err, core.ErrNoFile):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes an ErrorResponse.
//
// Client errors carry the error text so the UI can show exactly what was
// wrong with the request. Server errors carry the mapped user message only;
// the technical detail stays in the log.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	mapped := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= 500 {
		logger.Error("api error", "path", r.URL.Path, "status", status, "code", mapped.Code, "error", err)
	} else {
		logger.Info("api rejected request", "path", r.URL.Path, "status", status, "code", mapped.Code, "error", err)
	}

	msg := err.Error()
	switch {
	case status == http.StatusRequestEntityTooLarge:
		msg = "file too large"
	case status >= 500 && status != http.StatusServiceUnavailable:
		msg = mapped.Message
	}
	writeJSON(w, r, status, ErrorResponse{Error: msg, Code: mapped.Code})
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since the header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}
