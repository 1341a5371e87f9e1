// Package web serves the cleaning pipeline over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/web/middleware"
)

// Server is the HTTP front end for csvclean.
type Server struct {
	cfg     *config.Config
	limiter *Limiter
	metrics *Metrics
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds a server from cfg. Nothing listens until Start.
func NewServer(cfg *config.Config) *Server {
	limiter := NewLimiter(cfg.Server.MaxConcurrent, cfg.Server.MaxWaitTime)
	s := &Server{
		cfg:     cfg,
		limiter: limiter,
		metrics: NewMetrics(limiter),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	sc := cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/clean", s.handleClean)
		r.Post("/profile", s.handleProfile)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until Shutdown.
// A clean shutdown returns nil.
func (s *Server) Start() error {
	slog.Info("server starting", "addr", s.server.Addr, "max_concurrent", s.limiter.MaxConcurrent())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits, bounded by ctx, for
// in-flight cleaning requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- s.server.Shutdown(ctx) }()

	if n := s.limiter.ActiveCount(); n > 0 {
		slog.Info("waiting for requests to complete", "active", n)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			slog.Warn("requests did not complete in time", "error", err)
		}
	}
	return <-shutdownErr
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		// The HTML report is static markup with inline styles only.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}
