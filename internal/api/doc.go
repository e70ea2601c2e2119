// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

/*
Package api provides the HTTP layer of NodeWatch: the HTML pages users
subscribe through, the cron trigger and the JSON health/status endpoints.

Routes:

	GET  /                      index page with the subscribe form
	GET  /list?email=           watched nodes and all other nodes
	POST /prepare_action        sign an action and email the confirmation link
	GET  /run_action?signed_action=
	                            verify and apply a signed action
	GET  /cron                  run one reconciliation, JSON result
	GET  /static/*              files from server.static_dir
	GET  /api/v1/health/live    liveness
	GET  /api/v1/health/ready   readiness (pings the store)
	GET  /api/v1/status         scheduler status and directory stats
	GET  /metrics               Prometheus

Subscriptions only change through /run_action, whose link is only ever sent
to the address being (un)subscribed. /prepare_action therefore never touches
the store beyond looking up a node name, and it is rate limited per client IP
because each accepted request sends one email.

HTML pages are rendered with html/template from embedded files; every page
receives the ui and urls configuration. JSON endpoints use the
models.APIResponse envelope encoded with goccy/go-json.
*/
package api
