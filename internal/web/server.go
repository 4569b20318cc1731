// Package web provides the HTTP server, UI and JSON API of Cleanlytics.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/chart"
	"github.com/JonMunkholm/cleanlytics/internal/config"
	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/warehouse"
	mw "github.com/JonMunkholm/cleanlytics/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the cleaning workflow.
type Server struct {
	service *core.Service
	loader  *warehouse.Loader
	metrics http.Handler
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiter       *rateLimiter
	uploadLimiter *rateLimiter
}

// Option configures optional collaborators of the server.
type Option func(*Server)

// WithLoader enables loading cleaned tables into PostgreSQL.
func WithLoader(l *warehouse.Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.uploadLimiter = newRateLimiter(cfg.Rate.UploadLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/html", "text/css", "text/csv", "application/json", "image/svg+xml"))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(s.securityHeaders)

	if s.limiter != nil {
		s.router.Use(s.rateLimit(s.limiter))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// Browser UI, keyed by the session cookie
	s.router.Get("/", s.handlePage)
	s.router.With(s.uploadRateLimit).Post("/upload", s.handleUploadForm)
	s.router.Post("/clean", s.handleCleanForm)
	s.router.Post("/rename", s.handleRenameForm)
	s.router.Post("/mapping/{column}", s.handleMappingForm)
	s.router.Post("/recipe", s.handleRecipeForm)
	s.router.Get("/recipe.yaml", s.handleRecipeDownload)
	s.router.Post("/load", s.handleLoadForm)
	s.router.Get("/export.{format}", s.handleExportDownload)
	s.router.Get("/chart/{panel}.{format}", s.handleChartImage)

	// JSON API, keyed by session ID in the path
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.With(s.uploadRateLimit).Post("/sessions", s.apiCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.withAPISession)

			r.Get("/", s.apiGetSession)
			r.Delete("/", s.apiDeleteSession)
			r.With(s.uploadRateLimit).Put("/file", s.apiReplaceFile)
			r.Get("/rows", s.apiRows)
			r.Get("/columns", s.apiColumns)
			r.Put("/clean", s.apiClean)
			r.Put("/rename", s.apiRename)
			r.Get("/columns/{column}/values", s.apiDistinctValues)
			r.Put("/mappings/{column}", s.apiDeclareMapping)
			r.Delete("/mappings/{column}", s.apiDiscardMapping)
			r.Post("/mappings/{column}/apply", s.apiApplyMapping)
			r.Get("/panels/{panel}", s.apiPanel)
			r.Get("/charts/{panel}.{format}", s.apiChartImage)
			r.Get("/export.{format}", s.apiExport)
			r.Get("/recipe", s.apiGetRecipe)
			r.Post("/recipe", s.apiApplyRecipe)
			r.Post("/load", s.apiLoad)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
		s.uploadLimiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// chartOptions returns the configured chart size.
func (s *Server) chartOptions() chart.Options {
	return chart.Options{
		Width:   s.cfg.Chart.Width,
		Height:  s.cfg.Chart.Height,
		MaxBars: s.cfg.Chart.MaxBars,
	}
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Inline styles only; charts are same-origin images
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
