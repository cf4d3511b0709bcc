// Package web provides the HTTP server and handlers for the sensor inventory UI.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/config"
	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/JonMunkholm/SensorDesk/internal/web/middleware"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Title is shown in the page header.
const Title = "Sensor Inventory"

var errRateLimited = errors.New("rate limit exceeded")

// Server is the HTTP server of the UI.
type Server struct {
	svc      core.DataService
	cfg      *config.Config
	enricher *core.Enricher
	sessions *sessionStore
	router   *chi.Mux
	server   *http.Server

	limiter     *middleware.RateLimiter
	bulkLimiter *middleware.RateLimiter
}

// NewServer creates a Server whose view sessions talk to svc.
func NewServer(svc core.DataService, cfg *config.Config) *Server {
	enricher := core.NewEnricher(svc, cfg.Enrich.MaxLookups)
	enricher.SetLookupTimeout(cfg.Enrich.LookupTimeout)
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		enricher: enricher,
		sessions: newSessionStore(
			newSessionFactory(svc, enricher, cfg.Listing.PageSizes, cfg.Listing.FallbackPageSize),
			cfg.Session.IdleTimeout,
			cfg.Session.MaxSessions,
		),
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.limiter.OnLimit = s.onRateLimit
		s.router.Use(s.limiter.Handler)

		s.bulkLimiter = middleware.NewRateLimiter(s.cfg.Rate.BulkLimit, time.Minute)
		s.bulkLimiter.OnLimit = s.onRateLimit
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Group(func(r chi.Router) {
			if s.cfg.Server.RequestTimeout > 0 {
				r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
			}

			// Pages and partials
			r.Get("/", s.handleIndex)
			r.Get("/notifications", s.handleNotifications)

			// Listing
			r.Get("/sensors", s.handleSensors)
			r.Post("/sensors/page-size", s.handlePageSize)
			for _, action := range navActions {
				r.Post("/sensors/"+action, s.handleNavigate(action))
			}
			r.Post("/sensors/{id}/delete", s.handleDeleteSensor)

			// Exports
			r.Get("/data/export.csv", s.handleExportCSV)
			r.Get("/data/export.xlsx", s.handleExportXLSX)

			// Bulk mutations
			r.Group(func(r chi.Router) {
				s.useBulkLimit(r)
				r.Post("/data/sample", s.handleGenerateSampleData)
				r.Post("/data/delete-all", s.handleDeleteAllData)
			})
		})

		// Imports get the upload deadline instead of the request deadline.
		r.Group(func(r chi.Router) {
			if s.cfg.Upload.Timeout > 0 {
				r.Use(chimw.Timeout(s.cfg.Upload.Timeout))
			}
			s.useBulkLimit(r)
			r.Post("/data/import", s.handleImport)
		})
	})
}

func (s *Server) useBulkLimit(r chi.Router) {
	if s.bulkLimiter != nil {
		r.Use(s.bulkLimiter.Handler)
	}
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
}

// Start listens on the configured address until Shutdown is called.
// Background sweeps run until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
		go s.bulkLimiter.Run(ctx)
	}
	go s.sessions.run(ctx, s.cfg.Session.CleanupInterval)

	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	logging.FromContext(ctx).Info("ui server listening", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// htmx is the only script and is served from unpkg.
			w.Header().Set("Content-Security-Policy", csp)
		}
		next.ServeHTTP(w, r)
	})
}

// renderHTML renders c with an HTML content type. Render errors are logged
// since the header is already sent.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}
