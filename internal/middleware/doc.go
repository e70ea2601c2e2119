// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

/*
Package middleware provides the HTTP middleware that wraps every NodeWatch
route.

Key Components:

  - RequestID: request_id and correlation_id for log lines and X-Request-ID
  - AccessLog: one zerolog line per request, never including query strings
  - PrometheusMetrics: request count, latency and in-flight gauge labelled by
    chi route pattern
  - SecurityHeaders: CSP and the usual browser hardening headers

Middleware Stack:

The router in internal/api applies them in this order:

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(...))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders(cfg.URLs.Stylesheet))

All middleware use the func(http.Handler) http.Handler shape expected by chi.
*/
package middleware
