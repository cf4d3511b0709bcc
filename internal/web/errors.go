package web

// errors.go provides unified error response handling for the web layer.
//
// Two kinds of failure reach a handler:
//   - Failures the controllers already reported. They queued a notification
//     for the view, so the handler only tells htmx to fetch it (actionFailed).
//   - Failures outside the controllers, such as a rate limit or an oversized
//     upload. These are mapped via core.MapError, queued for the view and
//     rendered in the format the client asked for (respondError).
//
// Both log the technical error with the request and session ids.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/JonMunkholm/SensorDesk/internal/web/templates"
)

// ErrorResponse represents the JSON structure for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError handles errors that no controller has reported yet.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	logError(r, err, statusCode, userMsg.Code)

	if sess := viewSessionFrom(r.Context()); sess != nil {
		sess.queue.Notify(r.Context(), core.Notification{
			Title:    "Error",
			Message:  userMsg.Message,
			Severity: core.SeverityError,
			Code:     userMsg.Code,
		})
	}

	switch {
	case isHTMX(r):
		triggerNotify(w)
		w.Header().Set("HX-Reswap", "none")
		renderHTML(w, r, statusCode, templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code))
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// actionFailed answers a request whose controller call failed. The
// controller has already queued the user-facing notification.
func (s *Server) actionFailed(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := actionStatus(err)
	userMsg := core.MapError(err)
	logError(r, err, statusCode, userMsg.Code)

	switch {
	case isHTMX(r):
		triggerNotify(w)
		w.WriteHeader(statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// actionStatus maps a controller error to an HTTP status.
func actionStatus(err error) int {
	var se *core.ServiceError
	switch {
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrInvalidPageSize):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrOperationPending):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &se) && se.Status >= 400 && se.Status < 500:
		return se.Status
	default:
		return http.StatusBadGateway
	}
}

func logError(r *http.Request, err error, statusCode int, code string) {
	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", code,
	}
	if statusCode >= 500 {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}
}

// triggerNotify makes htmx fire the "notify" event, which refreshes the
// toast region. htmx handles the header on error statuses too.
func triggerNotify(w http.ResponseWriter) {
	w.Header().Set("HX-Trigger", "notify")
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}

// respondErrorHTML writes a plain error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
