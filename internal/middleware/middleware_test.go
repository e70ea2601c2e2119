// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
)

// ===================================================================================================
// RequestID Tests
// ===================================================================================================

func TestRequestID_GeneratesNewID(t *testing.T) {
	var capturedID, chiID, correlationID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		chiID = chimiddleware.GetReqID(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	responseID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
	}
	if capturedID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", capturedID, responseID)
	}
	if chiID != responseID {
		t.Errorf("chi request id = %q, want %q", chiID, responseID)
	}
	if correlationID == "" {
		t.Error("Expected correlation ID in context")
	}
}

func TestRequestID_UpstreamHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		preserve bool
	}{
		{"proxy id", "req-abc-123", true},
		{"uuid", "6f1c1a4e-56a2-4c8e-9b62-2b5b9d6e7f10", true},
		{"empty", "", false},
		{"with space", "abc def", false},
		{"too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"control char", "abc\x01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if tt.preserve && captured != tt.header {
				t.Errorf("request id = %q, want upstream %q", captured, tt.header)
			}
			if !tt.preserve && captured == tt.header {
				t.Errorf("request id %q should have been replaced", captured)
			}
			if rec.Header().Get(RequestIDHeader) != captured {
				t.Errorf("response header %q != context %q", rec.Header().Get(RequestIDHeader), captured)
			}
		})
	}
}

func TestGetRequestID_WithoutID(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}

// ===================================================================================================
// PrometheusMetrics Tests
// ===================================================================================================

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/static/*", "404"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/static/*", "404"))
	if after != before+1 {
		t.Errorf("requests counter = %v, want %v", after, before+1)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("POST", unmatchedRoute, "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/whatever", nil))
	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("POST", unmatchedRoute, "200"))

	if after != before+1 {
		t.Errorf("requests counter = %v, want %v", after, before+1)
	}
}

func TestMetricsResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusTeapot)
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap() should return the wrapped writer")
	}
}

// ===================================================================================================
// AccessLog Tests
// ===================================================================================================

func TestAccessLog_OmitsQuery(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	handler := RequestID(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})))

	req := httptest.NewRequest(http.MethodGet, "/list?email=alice%40example.org", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, `"path":"/list"`) {
		t.Errorf("log line missing path: %s", out)
	}
	if !strings.Contains(out, `"status":500`) {
		t.Errorf("log line missing status: %s", out)
	}
	if !strings.Contains(out, `"request_id"`) {
		t.Errorf("log line missing request_id: %s", out)
	}
	if strings.Contains(out, "alice") {
		t.Errorf("log line leaks query string: %s", out)
	}
}

// ===================================================================================================
// SecurityHeaders Tests
// ===================================================================================================

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders("https://cdn.example.org/theme/site.css", "not a url")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "style-src 'self' https://cdn.example.org;") {
		t.Errorf("CSP = %q", csp)
	}
	if !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("CSP = %q", csp)
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set for plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS should be set behind a TLS proxy")
	}
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://a.example/x.css", "https://a.example"},
		{"http://a.example:8080/x.css?v=1", "http://a.example:8080"},
		{"/static/site.css", ""},
		{"ftp://a.example/x.css", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := originOf(tt.input); got != tt.want {
			t.Errorf("originOf(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
