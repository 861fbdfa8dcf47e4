// Package web provides the HTTP surface of the import service: mapping
// inference, validation sessions with streamed progress, row edits with
// undo/redo, exports and templates.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/PeopleImport/internal/config"
	"github.com/JonMunkholm/PeopleImport/internal/core"
	mw "github.com/JonMunkholm/PeopleImport/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the import service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
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

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes. Every route except the progress
// stream runs under the request timeout.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)

		r.With(timeout).Post("/mapping/infer", s.handleInferMapping)
		r.With(timeout).Post("/mapping/fields", s.handleMappingFields)
		r.With(timeout).Get("/template", s.handleTemplate)

		r.With(timeout).Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/progress", s.handleProgress)

			r.Group(func(r chi.Router) {
				r.Use(timeout)

				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleCloseSession)

				r.Post("/rows", s.handleAddRow)
				r.Put("/rows/{row}", s.handleEditRow)
				r.Post("/rows/{row}/duplicate", s.handleDuplicateRow)
				r.Post("/rows/delete", s.handleDeleteRows)

				r.Post("/find-replace", s.handleFindReplace)
				r.Get("/matches", s.handleMatches)

				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)

				r.Get("/errors.html", s.handleErrorsFragment)
				r.Get("/export", s.handleExport)
			})
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

	slog.Info("starting server", "addr", s.server.Addr)
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

// StartLimiterCleanup evicts idle rate-limit entries until ctx is done.
func (s *Server) StartLimiterCleanup(ctx context.Context, interval time.Duration) {
	if s.limiter == nil {
		return
	}
	s.limiter.runCleanup(ctx, interval)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"sessions": s.service.ActiveSessions(),
		"runs":     s.service.Limiter().Status(),
	})
}
