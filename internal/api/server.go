// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/samatechnicien/samatech/internal/platform/config"
	"github.com/samatechnicien/samatech/internal/platform/constants"
	"github.com/samatechnicien/samatech/internal/platform/metrics"
	"github.com/samatechnicien/samatech/internal/platform/middleware"
	"github.com/samatechnicien/samatech/internal/users/account"
	"github.com/samatechnicien/samatech/internal/users/identity"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 when all dependencies answer.
	Readiness http.HandlerFunc

	// Identity handles login, registration and the session slot.
	Identity *identity.Handler

	// Account handles profile edits and the admin console.
	Account *account.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, registry *metrics.Metrics, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.CORS(cfg))
	r.Use(registry.Instrument)
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health and metrics endpoints for orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", registry.Handler())

	// # Application API
	// Every API request carries a session slot and, optionally, an access token.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.SessionSlot(cfg.IsProduction()))
		api.Use(middleware.Authenticate(verifier))
		api.Use(chimw.Timeout(constants.GlobalRequestTimeout))

		api.Mount("/auth", h.Identity.Routes())
		api.Mount("/account", h.Account.ProfileRoutes())
		api.Mount("/admin", h.Account.AdminRoutes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
