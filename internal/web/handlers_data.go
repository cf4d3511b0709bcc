package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/JonMunkholm/SensorDesk/internal/web/templates"
)

// multipartMemory is how much of an upload is held in memory before the
// rest spills to a temporary file.
const multipartMemory = 32 << 20

// handleImport hands the uploaded CSV to the data service. A request with
// no file reaches the controller anyway so it can report the precondition.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess := viewSessionFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	var files []core.UploadedFile
	err := r.ParseMultipartForm(multipartMemory)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondError(w, r, errors.New("file too large"), http.StatusRequestEntityTooLarge)
		return
	case err == nil:
		defer r.MultipartForm.RemoveAll()
		opened, closeAll, err := openUploads(r.MultipartForm.File[FileField])
		defer closeAll()
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		files = opened
	default:
		logging.FromContext(r.Context()).Info("import request without a multipart body", "error", err)
	}

	if err := sess.bulk.ImportCSV(r.Context(), files); err != nil {
		s.actionFailed(w, r, err)
		return
	}
	reloadPage(w)
}

// FileField is the multipart field carrying the import file.
const FileField = "file"

// openUploads opens every uploaded file. closeAll is always safe to call.
func openUploads(headers []*multipart.FileHeader) ([]core.UploadedFile, func(), error) {
	var closers []multipart.File
	closeAll := func() {
		for _, f := range closers {
			f.Close()
		}
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, f)
		files = append(files, core.UploadedFile{Name: fh.Filename, Size: fh.Size, Content: f})
	}
	return files, closeAll, nil
}

// handleGenerateSampleData asks the data service for a synthetic dataset.
func (s *Server) handleGenerateSampleData(w http.ResponseWriter, r *http.Request) {
	sess := viewSessionFrom(r.Context())
	if err := sess.bulk.GenerateSampleData(r.Context()); err != nil {
		s.actionFailed(w, r, err)
		return
	}
	reloadPage(w)
}

// handleDeleteAllData deletes every sensor and base station.
func (s *Server) handleDeleteAllData(w http.ResponseWriter, r *http.Request) {
	sess := viewSessionFrom(r.Context())
	if err := sess.bulk.DeleteAllData(r.Context()); err != nil {
		s.actionFailed(w, r, err)
		return
	}
	reloadPage(w)
}

// handleExportCSV downloads the rows currently shown, or the whole dataset
// with ?scope=all.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)

	if r.URL.Query().Get("scope") == "all" {
		d, err := sess.bulk.ExportAll(r.Context(), s.enricher)
		if err != nil {
			s.actionFailed(w, r, err)
			return
		}
		writeDownload(w, r, d)
		return
	}

	d, err := sess.bulk.ExportCSV(sess.listing.State().RowsCopy())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeDownload(w, r, d)
}

// handleExportXLSX downloads the rows currently shown as an Excel workbook.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.session(r)
	d, err := sess.bulk.ExportXLSX(sess.listing.State().RowsCopy())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeDownload(w, r, d)
}

// handleNotifications drains the session's queued notifications.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess := viewSessionFrom(r.Context())
	notes := sess.queue.Drain()

	if wantsJSON(r) {
		out := make([]NotificationResponse, len(notes))
		for i, n := range notes {
			out[i] = NotificationResponse{
				Title:    n.Title,
				Message:  n.Message,
				Severity: string(n.Severity),
				Code:     n.Code,
			}
		}
		writeJSON(w, r, out)
		return
	}
	renderHTML(w, r, http.StatusOK, templates.Toasts(notes))
}

// NotificationResponse is the JSON form of a queued notification.
type NotificationResponse struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
}
