package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"yeargrid/internal/log"
	"yeargrid/internal/metrics"
	"yeargrid/internal/middleware/trace"
	"yeargrid/internal/services"
	appweb "yeargrid/web"
)

// Options configures the HTTP server.
type Options struct {
	Addr               string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	SessionTTL         time.Duration
}

type Server struct {
	http.Server
	templates  *template.Template
	grids      *services.GridService
	events     *log.StructuredLogger
	trace      *trace.Middleware
	security   *securityMetrics
	sessionTTL time.Duration
	started    time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options, grids *services.GridService, m *metrics.Metrics, logger *log.Logger) (*Server, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perMinute := opts.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	events := log.NewStructuredLogger(logger)
	s := &Server{
		templates:  t,
		grids:      grids,
		events:     events,
		trace:      trace.NewMiddleware(extractClientIP, events),
		security:   &securityMetrics{},
		sessionTTL: opts.SessionTTL,
		started:    time.Now(),
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		s.trace.Middleware,
		log.Middleware(logger),
		log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }),
		middleware.Recoverer,
		middleware.Timeout(timeout),
		secureHeaders(),
		flagSuspicious(s.security),
		m.Middleware,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Page not found.").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError(http.MethodGet, http.MethodPost).Write(w)
	})

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		})
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Get("/", s.handleIndex)
	r.Route("/grid", func(r chi.Router) {
		r.Use(rateLimit(perMinute, s.security))
		r.Post("/rows", s.handleAddRow)
		r.Post("/tables", s.handleAddTable)
		r.Post("/submit", s.handleSubmit)
		r.Post("/export", s.handleExport)
		r.Post("/reset", s.handleReset)
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.InfoContext(ctx, "HTTP server shutting down",
		"rate_limit_hits", atomic.LoadInt64(&s.security.rateLimitHits),
		"suspicious_requests", atomic.LoadInt64(&s.security.suspiciousRequests))
	return s.Server.Shutdown(ctx)
}
