// Package server provides the HTTP server and routing for Wealth Horizon.
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

	"github.com/alschell/wealthhorizonai/internal/config"
	"github.com/alschell/wealthhorizonai/internal/coordinator"
	"github.com/alschell/wealthhorizonai/internal/metrics"
)

// APIKeyHeader carries the shared secret on every protected route.
const APIKeyHeader = "X-API-Key"

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Config      *config.Config
	Coordinator *coordinator.Coordinator
	Metrics     *metrics.Metrics
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	cfg         *config.Config
	coordinator *coordinator.Coordinator
	metrics     *metrics.Metrics
	startedAt   time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		cfg:         cfg.Config,
		coordinator: cfg.Coordinator,
		metrics:     m,
		startedAt:   time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	origins := s.cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader},
		ExposedHeaders: []string{"X-Query-Route"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes. The websocket stays outside the
// timeout and compression group because it outlives a single request.
func (s *Server) setupRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		if !s.cfg.DevMode {
			r.Use(middleware.Compress(5))
		}

		r.Get("/health", s.handleHealth)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIKey)
			r.Get("/query", s.handleQuery)
			r.Get("/api/hierarchy", s.handleHierarchy)
			r.Get("/api/system/status", s.handleSystemStatus)
		})
	})

	s.router.With(s.requireAPIKey).Get("/ws", s.handleWebsocket)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Route patterns keep the label set bounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		s.metrics.HTTPRequestsTotal.WithLabelValues(path, fmt.Sprint(ww.Status())).Inc()

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
