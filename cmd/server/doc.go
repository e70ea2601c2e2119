// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

/*
Package main is the NodeWatch server.

NodeWatch lets people subscribe by email to nodes of a community mesh
network. It reconciles a local node directory against the map's nodes.json
feed and mails every subscriber of a node when it goes offline or comes back.
Subscribing and unsubscribing need no account: the server mails a signed
link and only following that link changes anything.

# Process Layout

	RootSupervisor ("nodewatch")
	├── SchedulerSupervisor ("scheduler-layer")
	│   └── reconcile-scheduler (runs every reconcile.interval)
	└── APISupervisor ("api-layer")
	    └── http-server

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, .env, environment)
 2. Logging: zerolog
 3. Store: DuckDB, SQLite or MySQL, schema created if missing
 4. Mail: SMTP mailer, rate limited
 5. Reconciliation: fetcher, reconciler, scheduler
 6. HTTP: chi router with pages, /cron, health and /metrics
 7. Supervisor tree until SIGINT or SIGTERM

# Configuration

The most important settings, as environment variables:

	INSTANCE_NAME        Community name shown on pages and in mail
	EMAIL_FROM           Sender address
	ROOT_URL             Public URL of this instance
	NODES_URL            nodes.json (version 2) of the map
	ACTION_SIGNING_KEY   Hex secret, at least 16 bytes (nodewatchctl genkey)
	SMTP_HOST            Mail relay
	DB_DRIVER            duckdb (default), sqlite or mysql
	RECONCILE_INTERVAL   e.g. 5m; 0 leaves runs to /cron

# Example

	export ROOT_URL=https://monitor.example.org/
	export NODES_URL=https://map.example.org/data/nodes.json
	export ACTION_SIGNING_KEY=$(nodewatchctl genkey)
	export SMTP_HOST=localhost
	./nodewatch

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for up
to 10s and an in-flight reconciliation finishes before the database closes.
*/
package main
