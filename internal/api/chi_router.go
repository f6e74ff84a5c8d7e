// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/areamap/internal/middleware"
)

// Authenticator attaches the request owner to the context or rejects the
// request.
type Authenticator interface {
	Authenticate(next http.Handler) http.Handler
}

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	authenticator Authenticator
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, authenticator Authenticator, mw *ChiMiddleware) *Router {
	return &Router{handler: handler, authenticator: authenticator, chiMiddleware: mw}
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/embed", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitPublic())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/{token}", router.handler.EmbedByToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authenticator.Authenticate)

		r.Route("/api/v1/locations", func(r chi.Router) {
			r.Post("/search", router.handler.LocationSearch)
			r.Get("/history", router.handler.LocationHistory)
			r.Post("/expiration", router.handler.ExtendLocationExpiration)
			r.Delete("/trial", router.handler.PurgeTrialData)
		})

		r.Route("/api/v1/snapshots", func(r chi.Router) {
			r.Post("/", router.handler.CreateSnapshot)
			r.Get("/", router.handler.ListSnapshots)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", router.handler.GetSnapshot)
				r.Patch("/", router.handler.UpdateSnapshot)
				r.Delete("/", router.handler.DeleteSnapshot)
				r.Get("/embed", router.handler.GetSnapshotEmbed)
				r.Post("/tokens", router.handler.MintSplitTokens)
				r.Put("/iframe-expiration", router.handler.SetIframeExpiration)
			})
		})
	})

	return r
}
