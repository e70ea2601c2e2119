// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodewatch_db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_db_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodewatch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodewatch_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Reconciliation Metrics
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_reconcile_runs_total",
			Help: "Reconciliation runs by outcome (all_ok, not_enough_online, error)",
		},
		[]string{"outcome"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nodewatch_reconcile_duration_seconds",
			Help:    "Duration of reconciliation runs including feed fetch",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ReconcileChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_reconcile_changes_total",
			Help: "Online state transitions detected, by new state",
		},
		[]string{"state"},
	)

	NodesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodewatch_nodes",
			Help: "Number of nodes in the last accepted feed snapshot",
		},
	)

	NodesOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodewatch_nodes_online",
			Help: "Number of online nodes in the last fetched feed snapshot",
		},
	)

	LastSuccessfulReconcile = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nodewatch_reconcile_last_success_timestamp_seconds",
			Help: "Unix time of the last successful reconciliation",
		},
	)

	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_feed_fetch_total",
			Help: "Feed fetch attempts by result",
		},
		[]string{"result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nodewatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Notification Metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_emails_total",
			Help: "Outgoing emails by kind (notification, confirmation) and result",
		},
		[]string{"kind", "result"},
	)

	EmailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nodewatch_email_send_duration_seconds",
			Help:    "Duration of SMTP deliveries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Action Metrics
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_actions_total",
			Help: "Executed subscription actions by operation and result (changed, noop, error)",
		},
		[]string{"op", "result"},
	)

	TokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodewatch_tokens_issued_total",
			Help: "Signed action tokens issued by operation",
		},
		[]string{"op"},
	)

	TokenRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nodewatch_token_rejections_total",
			Help: "Action tokens that failed decoding or verification",
		},
	)
)

// errorType maps an error to a low-cardinality label value.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// RecordDBQuery records a store query duration and its error, if any.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorType(err)).Inc()
	}
}

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordReconcile records a finished run. outcome is all_ok,
// not_enough_online or error; online/offline count state transitions.
func RecordReconcile(outcome string, duration time.Duration, online, offline int) {
	ReconcileRunsTotal.WithLabelValues(outcome).Inc()
	ReconcileDuration.Observe(duration.Seconds())
	if online > 0 {
		ReconcileChangesTotal.WithLabelValues("online").Add(float64(online))
	}
	if offline > 0 {
		ReconcileChangesTotal.WithLabelValues("offline").Add(float64(offline))
	}
	if outcome == "all_ok" {
		LastSuccessfulReconcile.SetToCurrentTime()
	}
}

// UpdateNodeGauges sets the node gauges from the latest feed snapshot.
func UpdateNodeGauges(total, online int) {
	NodesTotal.Set(float64(total))
	NodesOnline.Set(float64(online))
}

// RecordFeedFetch records one fetch attempt (success, http_error,
// too_large, network_error, circuit_open).
func RecordFeedFetch(result string) {
	FeedFetchTotal.WithLabelValues(result).Inc()
}

// RecordEmail records one outgoing email. kind is notification or
// confirmation.
func RecordEmail(kind string, duration time.Duration, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	NotificationsTotal.WithLabelValues(kind, result).Inc()
	EmailSendDuration.Observe(duration.Seconds())
}

// RecordAction records an executed subscription action.
func RecordAction(op, result string) {
	ActionsTotal.WithLabelValues(op, result).Inc()
}

// RecordTokenIssued records a signed token handed out by prepare_action.
func RecordTokenIssued(op string) {
	TokensIssuedTotal.WithLabelValues(op).Inc()
}

// RecordTokenRejected records a token that failed decode or verify.
func RecordTokenRejected() {
	TokenRejectionsTotal.Inc()
}

// RecordCircuitBreakerTransition updates the breaker gauge and counts the
// transition. States use gobreaker's string names.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
}

func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
