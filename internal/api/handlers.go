package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handlePageSize(w http.ResponseWriter, r *http.Request) {
	size, err := s.svc.DefaultPageSize(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, PageSizeResponse{PageSize: size})
}

// handleListSensors serves ?limit=&offset=. A missing limit uses the
// service default page size.
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if limit == 0 {
		if limit, err = s.svc.DefaultPageSize(ctx); err != nil {
			respondError(w, r, err)
			return
		}
	}
	if limit < 0 || limit > s.opts.MaxPageSize {
		respondError(w, r, fmt.Errorf("%w: limit must be 1-%d", core.ErrInvalidPageSize, s.opts.MaxPageSize))
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if offset < 0 {
		respondError(w, r, fmt.Errorf("%w: offset must not be negative", core.ErrInvalidPageSize))
		return
	}

	sensors, err := s.svc.Page(ctx, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sensors == nil {
		sensors = []core.SensorRecord{}
	}
	writeJSON(w, r, http.StatusOK, SensorsResponse{Sensors: sensors, Limit: limit, Offset: offset})
}

func (s *Server) handleCountSensors(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Count(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, CountResponse{Count: n})
}

func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSensor(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStationName(w http.ResponseWriter, r *http.Request) {
	name, err := s.svc.BaseStationName(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, StationNameResponse{Name: name})
}

// handleImport accepts a multipart upload in the "file" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, err)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile(ImportFormField)
	if err != nil {
		respondError(w, r, core.ErrNoFile)
		return
	}
	defer f.Close()

	err = s.svc.ImportFile(r.Context(), core.UploadedFile{
		Name:    header.Filename,
		Size:    header.Size,
		Content: f,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateSampleData(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.GenerateSampleData(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllData(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteAllData(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", core.ErrInvalidPageSize, name, v)
	}
	return n, nil
}
