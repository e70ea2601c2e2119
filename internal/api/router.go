// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/nodewatch/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for handler using the server section of the
// handler's configuration.
func NewRouter(handler *Handler) *Router {
	mwConfig := ChiMiddlewareConfigFromServer(handler.config.Server)
	mwConfig.RateLimitOnLimit = func(w http.ResponseWriter, r *http.Request) {
		handler.pages.renderError(w, r, http.StatusTooManyRequests,
			"Too many requests from your address. Please wait a minute and try again.")
	}

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders(h.config.URLs.Stylesheet))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.pages.renderError(w, r, http.StatusNotFound, "This page does not exist.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.pages.renderError(w, r, http.StatusMethodNotAllowed, "This request method is not supported here.")
	})

	// ========================
	// Pages
	// ========================
	r.Get("/", h.Index)
	r.Get("/list", h.List)
	r.With(router.chiMiddleware.RateLimit()).Post("/prepare_action", h.PrepareAction)
	r.Get("/run_action", h.RunAction)
	r.Get("/static/*", staticHandler(h.config.Server.StaticDir))

	// ========================
	// Operations
	// ========================
	r.Get("/cron", h.Cron)
	r.Post("/cron", h.Cron)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)
		r.Get("/status", h.Status)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
