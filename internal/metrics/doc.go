// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

/*
Package metrics provides Prometheus metrics for NodeWatch.

All collectors are registered on the default registry via promauto and are
exposed at /metrics:

	curl http://localhost:8000/metrics

# Available Metrics

Store:
  - nodewatch_db_query_duration_seconds{operation,table}
  - nodewatch_db_query_errors_total{operation,table,error_type}

HTTP:
  - nodewatch_http_requests_total{method,endpoint,status}
  - nodewatch_http_request_duration_seconds{method,endpoint}
  - nodewatch_http_active_requests

Reconciliation:
  - nodewatch_reconcile_runs_total{outcome}
  - nodewatch_reconcile_duration_seconds
  - nodewatch_reconcile_changes_total{state}
  - nodewatch_nodes, nodewatch_nodes_online
  - nodewatch_feed_fetch_total{result}
  - nodewatch_circuit_breaker_state{name}

Mail and actions:
  - nodewatch_emails_total{kind,result}
  - nodewatch_actions_total{op,result}
  - nodewatch_tokens_issued_total{op}
  - nodewatch_token_rejections_total

Record* helpers are safe for concurrent use.
*/
package metrics
