// Package server provides the HTTP server and routing for scorecard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/scorecard/internal/modules/dashboard"
	dashboardhandlers "github.com/aristath/scorecard/internal/modules/dashboard/handlers"
	"github.com/aristath/scorecard/internal/modules/snapshot"
	"github.com/aristath/scorecard/internal/scheduler"
)

// SnapshotStore serves and refreshes the loaded snapshot
type SnapshotStore interface {
	Current() (snapshot.Snapshot, error)
	Reload(ctx context.Context) (snapshot.Snapshot, error)
	Status() snapshot.Status
}

// JobLister reports scheduled jobs
type JobLister interface {
	Status() []scheduler.JobStatus
}

// DatabaseChecker reports whether a database answers
type DatabaseChecker interface {
	Name() string
	QuickCheck(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	LogFile   string // served by /api/system/logs
	Port      int
	DevMode   bool
	Store     SnapshotStore
	Service   *dashboard.Service
	Scheduler JobLister       // nil when no jobs are scheduled
	Database  DatabaseChecker // nil unless the snapshot comes from SQLite
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	store          SnapshotStore
	service        *dashboard.Service
	systemHandlers *SystemHandlers
	logHandlers    *LogHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		store:          cfg.Store,
		service:        cfg.Service,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Store, cfg.Scheduler, cfg.Database),
		logHandlers:    NewLogHandlers(cfg.Log, cfg.LogFile),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/logs", s.logHandlers.HandleGetLogs)
		})

		r.Route("/snapshot", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSnapshotStatus)
			r.Post("/reload", s.systemHandlers.HandleSnapshotReload)
		})

		dashboardhandlers.NewHandlers(s.service, s.store, s.log).RegisterRoutes(r)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
