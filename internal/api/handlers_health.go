// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
	"github.com/tomtom215/nodewatch/internal/reconcile"
)

// readinessTimeout bounds the store ping of the readiness probe.
const readinessTimeout = 2 * time.Second

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Time{})
}

// HealthReady reports whether the store answers. Kubernetes and Docker
// health checks use this to hold traffic until the database is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.directory.Ping(ctx); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database not reachable", err)
		return
	}
	respondSuccess(w, map[string]string{"status": "ready"}, time.Time{})
}

// StatusResponse is the payload of /api/v1/status.
type StatusResponse struct {
	Scheduler reconcile.Status       `json:"scheduler"`
	Directory *models.DirectoryStats `json:"directory"`
	Uptime    float64                `json:"uptime_seconds"`
}

// Status reports scheduler state and directory counts. The node gauges are
// refreshed as a side effect so they stay accurate between runs.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.directory.Stats(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to read directory statistics", err)
		return
	}
	metrics.UpdateNodeGauges(stats.Nodes, stats.OnlineNodes)

	respondSuccess(w, StatusResponse{
		Scheduler: h.scheduler.Status(),
		Directory: stats,
		Uptime:    time.Since(h.startTime).Seconds(),
	}, start)
}
