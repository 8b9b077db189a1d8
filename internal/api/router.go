// Affinigraph - Graph-Based Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinigraph

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/affinigraph/internal/middleware"
)

// NewRouter builds the chi router. A nil cfg uses DefaultMiddlewareConfig.
func NewRouter(h *Handler, cfg *MiddlewareConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultMiddlewareConfig()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.cors())
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint", nil)
	})

	// Health checks are not rate limited.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.rateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/interactions", h.SubmitInteractions)
		r.Get("/algorithms", h.Algorithms)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/status", h.RecommendationStatus)
			r.Get("/{algorithm}/users/{userID}", h.Recommendations)
		})

		r.Get("/users", h.Users)
		r.Post("/users", h.RegisterUser)
		r.Get("/users/{userID}", h.User)
		r.Get("/items", h.Items)
		r.Post("/items", h.RegisterItem)
		r.Get("/items/{itemID}", h.Item)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
