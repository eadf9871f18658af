// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the chi route tree.
type Router struct {
	handler *Handler
	config  MiddlewareConfig
}

// NewRouter creates a router for handler.
func NewRouter(handler *Handler, config MiddlewareConfig) *Router {
	return &Router{handler: handler, config: config}
}

// SetupChi returns the HTTP handler serving every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogging)

	// Probes and scrapes are not rate limited.
	r.Get("/healthz", router.handler.HealthLive)
	r.Get("/readyz", router.handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(router.config))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)

		r.Get("/engine", router.handler.EngineStats)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", router.handler.SessionsCount)
			r.Delete("/", router.handler.SessionsPurge)
			r.Get("/{player}", router.handler.SessionGet)
			r.Delete("/{player}", router.handler.SessionDelete)
		})

		r.Post("/players/{player}/flag", router.handler.FlagPlayer)

		r.Route("/offenders", func(r chi.Router) {
			r.Get("/", router.handler.OffendersList)
			r.Delete("/", router.handler.OffendersPurge)
			r.Get("/{player}", router.handler.OffenderGet)
			r.Delete("/{player}", router.handler.OffenderAbsolve)
		})

		r.Get("/feed", router.handler.Feed)
	})

	return r
}
