package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/spherical/libs/crossref-engine/cmd/crossref-api/handlers"
	"github.com/spherical-ai/spherical/libs/crossref-engine/cmd/crossref-api/middleware"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api/grpc"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

const serviceName = "crossref-engine"

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *AppConfig, service *api.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Trace)
	r.Use(chimiddleware.RealIP)
	if cfg.AccessLog {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, client.HealthResponse{Status: "healthy", Service: serviceName})
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		stats := service.Stats()
		if stats.Competitors+stats.Legacy == 0 {
			writeHealth(w, http.StatusServiceUnavailable, client.HealthResponse{Status: "catalog empty", Service: serviceName})
			return
		}
		writeHealth(w, http.StatusOK, client.HealthResponse{Status: "ready", Service: serviceName})
	})

	searchHandler := handlers.NewSearchHandler(logger, service)
	connectPath, connectHandler := grpc.NewCrossRefService(logger, service).Handler()

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.AuthConfig))
		r.Handle(connectPath+"*", connectHandler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.AuthConfig))

		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.SearchQuery)
			r.Post("/", searchHandler.Search)
			r.Post("/batch", searchHandler.SearchBatch)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", searchHandler.GetConfig)
			r.Patch("/", searchHandler.UpdateConfig)
		})

		r.Get("/catalog/stats", searchHandler.Stats)
	})

	return r
}

func writeHealth(w http.ResponseWriter, status int, body client.HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// AppConfig holds application configuration.
type AppConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	AccessLog      bool
	AuthConfig     middleware.AuthConfig
}

// DefaultAppConfig returns default configuration values.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		RequestTimeout: 30 * time.Second,
		CORSOrigins:    []string{"*"},
		AuthConfig: middleware.AuthConfig{
			Enabled: false,
		},
	}
}
