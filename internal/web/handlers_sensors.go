package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/SensorDesk/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// navActions are the pager buttons, each served at POST /sensors/{action}.
var navActions = []string{"first", "previous", "next", "last"}

// handleIndex renders the full page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)
	renderHTML(w, r, http.StatusOK, templates.Dashboard(templates.DashboardView{
		Title: Title,
		Table: s.tableView(sess),
		Data:  dataView(sess),
	}))
}

// handleSensors re-fetches the current page and renders the table partial.
func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	sess, initialized := s.session(r)
	var err error
	if !initialized {
		err = sess.listing.FetchPage(r.Context())
	}
	s.renderTable(w, r, sess, err)
}

// handlePageSize changes the page size. A missing or non-numeric value is
// treated as an invalid size and reported without a service call.
func (s *Server) handlePageSize(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)
	n, _ := strconv.Atoi(r.FormValue("pageSize"))
	err := sess.listing.SetPageSize(r.Context(), n)
	s.renderTable(w, r, sess, err)
}

// handleNavigate returns the handler of one pager button.
func (s *Server) handleNavigate(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := s.session(r)
		ctx := r.Context()

		var err error
		switch action {
		case "first":
			err = sess.listing.GoToFirst(ctx)
		case "previous":
			err = sess.listing.GoToPrevious(ctx)
		case "next":
			err = sess.listing.GoToNext(ctx)
		case "last":
			err = sess.listing.GoToLast(ctx)
		default:
			http.NotFound(w, r)
			return
		}
		s.renderTable(w, r, sess, err)
	}
}

// handleDeleteSensor deletes one row and renders the refreshed table.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)
	id := chi.URLParam(r, "id")
	err := sess.listing.DeleteRow(r.Context(), id)
	s.renderTable(w, r, sess, err)
}
