// Package router provides HTTP routing configuration using Chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/remiblancher/qcert/internal/api/handler"
	"github.com/remiblancher/qcert/internal/api/metrics"
	"github.com/remiblancher/qcert/internal/api/middleware"
)

// Config holds router configuration.
type Config struct {
	Version string
	Service handler.CertService
	Metrics *metrics.Store
	Logger  zerolog.Logger
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	healthHandler := handler.NewHealthHandler(cfg.Version)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	certHandler := handler.NewCertHandler(cfg.Service)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/certificate", func(r chi.Router) {
			r.Get("/", certHandler.Get)
			r.Get("/pem", certHandler.PEM)
			r.Post("/renew", certHandler.Renew)
		})
	})

	return r
}
