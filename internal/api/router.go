// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package api

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/middleware"
)

//go:embed frontend.html
var frontendHTML []byte

// Router assembles the HTTP routing tree.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter creates a Router around the given handler.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes using the Chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// CORS must be global to handle OPTIONS preflight
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints: permissive rate limiting for monitoring
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Analysis endpoint: each request fans out to multiple upstream calls,
	// so inbound rate limiting stays strict
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.rateLimitReqs(), router.rateLimitWindow()))
		r.Use(middleware.PrometheusMetrics)
		r.Post("/analyze", router.handler.Analyze)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", router.Home)

	return r
}

// Home serves the embedded single-page frontend.
func (router *Router) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(frontendHTML) //nolint:errcheck
}

func (router *Router) corsOrigins() []string {
	if router.cfg != nil && len(router.cfg.CORSOrigins) > 0 {
		return router.cfg.CORSOrigins
	}
	return []string{"*"}
}

func (router *Router) rateLimitReqs() int {
	if router.cfg != nil && router.cfg.RateLimitReqs > 0 {
		return router.cfg.RateLimitReqs
	}
	return 30
}

func (router *Router) rateLimitWindow() time.Duration {
	if router.cfg != nil && router.cfg.RateLimitWindow > 0 {
		return router.cfg.RateLimitWindow
	}
	return time.Minute
}
