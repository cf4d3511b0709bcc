package web

// handlers_common.go contains helpers shared across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/JonMunkholm/SensorDesk/internal/web/templates"
)

// session returns the request's view session with its listing loaded.
// A failed first load is logged; the controllers have already queued the
// notification and the view renders whatever state it has.
func (s *Server) session(r *http.Request) (*viewSession, bool) {
	sess := viewSessionFrom(r.Context())
	initialized, err := sess.ensureReady(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("initial sensor load failed", "error", err)
	}
	return sess, initialized
}

// tableView snapshots the session's listing for rendering.
func (s *Server) tableView(sess *viewSession) templates.TableView {
	return templates.TableView{
		State:           sess.listing.State(),
		PageSizeOptions: sess.listing.PageSizeOptions(),
	}
}

// dataView snapshots the session's bulk controller for rendering.
func dataView(sess *viewSession) templates.DataView {
	state, pending := sess.bulk.State()
	return templates.DataView{State: state, Pending: pending}
}

// renderTable answers a listing action with the table partial.
//
// Listing failures leave the state unchanged and are shown as toasts, so
// the partial is rendered either way. A superseded fetch is not a failure:
// the newer request renders the page the user asked for.
func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, sess *viewSession, err error) {
	if err != nil && !errors.Is(err, core.ErrSuperseded) {
		logging.FromContext(r.Context()).Warn("listing action failed", "path", r.URL.Path, "error", err)
	}
	if sess.queue.Len() > 0 {
		triggerNotify(w)
	}
	renderHTML(w, r, http.StatusOK, templates.SensorTable(s.tableView(sess)))
}

// reloadPage answers a successful bulk mutation. htmx reloads the whole page.
func reloadPage(w http.ResponseWriter) {
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}

// writeDownload sends d as a file attachment.
func writeDownload(w http.ResponseWriter, r *http.Request, d core.Download) {
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(d.Body); err != nil {
		logging.FromContext(r.Context()).Warn("download write failed", "file", d.FileName, "error", err)
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}
