// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// sampleCount returns the number of observations of a histogram.
func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error = %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
		wantType  string
	}{
		{"successful select", "select", "nodes", nil, ""},
		{"generic failure", "insert", "monitors", errors.New("constraint violated"), "error"},
		{"timeout", "update", "nodes", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", "delete", "nodes", context.Canceled, "canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before float64
			if tt.wantType != "" {
				before = testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantType))
			}

			RecordDBQuery(tt.operation, tt.table, 5*time.Millisecond, tt.err)

			if tt.wantType == "" {
				return
			}
			after := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantType))
			if after != before+1 {
				t.Errorf("DBQueryErrors{%s} = %v, want %v", tt.wantType, after, before+1)
			}
		})
	}
}

func TestRecordReconcile(t *testing.T) {
	onlineBefore := testutil.ToFloat64(ReconcileChangesTotal.WithLabelValues("online"))
	offlineBefore := testutil.ToFloat64(ReconcileChangesTotal.WithLabelValues("offline"))
	runsBefore := testutil.ToFloat64(ReconcileRunsTotal.WithLabelValues("all_ok"))
	observedBefore := sampleCount(t, ReconcileDuration)

	RecordReconcile("all_ok", time.Second, 2, 3)

	if got := sampleCount(t, ReconcileDuration); got != observedBefore+1 {
		t.Errorf("ReconcileDuration samples = %d, want %d", got, observedBefore+1)
	}

	if got := testutil.ToFloat64(ReconcileChangesTotal.WithLabelValues("online")); got != onlineBefore+2 {
		t.Errorf("online changes = %v, want %v", got, onlineBefore+2)
	}
	if got := testutil.ToFloat64(ReconcileChangesTotal.WithLabelValues("offline")); got != offlineBefore+3 {
		t.Errorf("offline changes = %v, want %v", got, offlineBefore+3)
	}
	if got := testutil.ToFloat64(ReconcileRunsTotal.WithLabelValues("all_ok")); got != runsBefore+1 {
		t.Errorf("runs = %v, want %v", got, runsBefore+1)
	}
	if testutil.ToFloat64(LastSuccessfulReconcile) == 0 {
		t.Error("LastSuccessfulReconcile not set after all_ok run")
	}
}

func TestUpdateNodeGauges(t *testing.T) {
	UpdateNodeGauges(50, 12)

	if got := testutil.ToFloat64(NodesTotal); got != 50 {
		t.Errorf("NodesTotal = %v, want 50", got)
	}
	if got := testutil.ToFloat64(NodesOnline); got != 12 {
		t.Errorf("NodesOnline = %v, want 12", got)
	}
}

func TestRecordEmail(t *testing.T) {
	sentBefore := testutil.ToFloat64(NotificationsTotal.WithLabelValues("notification", "sent"))
	failedBefore := testutil.ToFloat64(NotificationsTotal.WithLabelValues("notification", "failed"))

	RecordEmail("notification", 10*time.Millisecond, nil)
	RecordEmail("notification", 10*time.Millisecond, errors.New("550 mailbox unavailable"))

	if got := testutil.ToFloat64(NotificationsTotal.WithLabelValues("notification", "sent")); got != sentBefore+1 {
		t.Errorf("sent = %v, want %v", got, sentBefore+1)
	}
	if got := testutil.ToFloat64(NotificationsTotal.WithLabelValues("notification", "failed")); got != failedBefore+1 {
		t.Errorf("failed = %v, want %v", got, failedBefore+1)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"closed", "open", 2},
		{"open", "half-open", 1},
		{"half-open", "closed", 0},
	}
	for _, tt := range tests {
		RecordCircuitBreakerTransition("test-feed", tt.from, tt.to)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-feed")); got != tt.want {
			t.Errorf("state after %s->%s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTrackActiveRequestConcurrent(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

func TestActionAndTokenCounters(t *testing.T) {
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("add", "noop"))
	RecordAction("add", "noop")
	if got := testutil.ToFloat64(ActionsTotal.WithLabelValues("add", "noop")); got != before+1 {
		t.Errorf("ActionsTotal = %v, want %v", got, before+1)
	}

	rejected := testutil.ToFloat64(TokenRejectionsTotal)
	RecordTokenRejected()
	if got := testutil.ToFloat64(TokenRejectionsTotal); got != rejected+1 {
		t.Errorf("TokenRejectionsTotal = %v, want %v", got, rejected+1)
	}
}
