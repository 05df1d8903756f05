// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"pogopipe/internal/controller/handlers"
	"pogopipe/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// Config carries the server wiring.
type Config struct {
	Addr        string
	AdminSecret string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// New creates a new controller server.
func New(cfg Config, store handlers.StoreFactory, svc handlers.PipelineService, coord handlers.SessionCoordinator) *Server {
	h := handlers.New(store, svc, coord)
	authMW := middleware.AuthMiddleware(store)
	rateMW := middleware.RateLimitMiddleware()
	adminMW := middleware.RequireAdminAuth(cfg.AdminSecret)

	authed := func(fn http.HandlerFunc) http.Handler {
		return authMW(rateMW(fn))
	}

	mux := http.NewServeMux()

	// Admin provisioning
	mux.Handle("POST /tenants", adminMW(http.HandlerFunc(h.CreateTenant)))

	// Public authenticated apis
	mux.Handle("GET /tenants/usage", authed(h.TenantUsage))
	mux.Handle("POST /artifacts/{id}/process", authed(h.ProcessArtifact))
	mux.Handle("GET /artifacts/{id}/task-status", authed(h.TaskStatus))
	mux.Handle("POST /artifacts/{id}/retry", authed(h.RetryArtifact))
	mux.Handle("GET /artifacts/{id}/updates/latest", authed(h.LatestContent))
	mux.Handle("POST /sessions/{id}/process", authed(h.ProcessSession))

	// Probes and telemetry
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
