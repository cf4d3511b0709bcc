// Package api serves the data service JSON API over any core.DataService.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	mw "github.com/JonMunkholm/SensorDesk/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the API server.
type Options struct {
	MaxPageSize    int           // Upper bound for ?limit; <= 0 means 1000
	MaxUploadSize  int64         // Upper bound for import bodies; <= 0 means 100MB
	RequestTimeout time.Duration // Applies to every route except imports; 0 disables
	ImportTimeout  time.Duration // Applies to imports; 0 disables
	TrustedProxies []string
	RateLimit      int // Requests per minute per IP; 0 disables

	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// Server is the HTTP server of the data service.
type Server struct {
	svc     core.DataService
	opts    Options
	router  *chi.Mux
	server  *http.Server
	limiter *mw.RateLimiter
}

// NewServer creates a Server for svc.
func NewServer(svc core.DataService, opts Options) *Server {
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 1000
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 100 << 20
	}

	s := &Server{
		svc:    svc,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)

	if s.opts.RateLimit > 0 {
		s.limiter = mw.NewRateLimiter(s.opts.RateLimit, time.Minute)
		s.limiter.OnLimit = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, r, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded", Code: "RATE001"})
		}
		s.router.Use(s.limiter.Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Group(func(r chi.Router) {
		if s.opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
		}
		r.Get(PathPageSize, s.handlePageSize)
		r.Get(PathSensors, s.handleListSensors)
		r.Get(PathSensorCount, s.handleCountSensors)
		r.Delete(PathSensor, s.handleDeleteSensor)
		r.Get(PathStationName, s.handleStationName)
		r.Post(PathSampleData, s.handleGenerateSampleData)
		r.Delete(PathData, s.handleDeleteAllData)
	})

	// Imports get their own, longer deadline.
	s.router.Group(func(r chi.Router) {
		if s.opts.ImportTimeout > 0 {
			r.Use(middleware.Timeout(s.opts.ImportTimeout))
		}
		r.Post(PathImports, s.handleImport)
	})
}

// Router returns the root handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called. The rate limiter's
// eviction loop runs until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.opts.ReadTimeout,
		IdleTimeout: s.opts.IdleTimeout,
	}

	logging.FromContext(ctx).Info("data service listening", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
