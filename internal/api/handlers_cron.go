// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/reconcile"
)

// CronTokenHeader is the header alternative to ?token= on /cron.
const CronTokenHeader = "X-Cron-Token"

// Cron runs one reconciliation synchronously and returns its result.
//
// When server.cron_token is configured the request must carry it as
// ?token= or X-Cron-Token. A run already in progress yields 409. The run is
// detached from the request context so a disconnecting client cannot abort
// it between commit and notification. server.cron_timeout replaces the
// server write timeout for this response.
func (h *Handler) Cron(w http.ResponseWriter, r *http.Request) {
	if !h.cronAuthorized(r) {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Missing or invalid cron token", nil)
		return
	}

	if timeout := h.config.Server.CronTimeout; timeout > 0 {
		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Now().Add(timeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to extend /cron write deadline")
		}
	}

	start := time.Now()
	result, err := h.scheduler.RunNow(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, reconcile.ErrRunInProgress):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "A reconciliation is already running", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusBadGateway, ErrCodeReconcileFailed, "Reconciliation failed, see server log", err)
		return
	}

	respondSuccess(w, result, start)
}

func (h *Handler) cronAuthorized(r *http.Request) bool {
	want := h.config.Server.CronToken
	if want == "" {
		return true
	}
	got := r.URL.Query().Get("token")
	if got == "" {
		got = r.Header.Get(CronTokenHeader)
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
