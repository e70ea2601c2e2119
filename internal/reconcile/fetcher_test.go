// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/nodewatch/internal/config"
)

func testFetchConfig() config.ReconcileConfig {
	return config.ReconcileConfig{
		FetchTimeout:  2 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxFeedBytes:  1024,
	}
}

func TestFetcherSuccess(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"version": 2, "nodes": []}`))
	}))
	defer server.Close()

	data, err := NewFetcher(server.URL, testFetchConfig()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != `{"version": 2, "nodes": []}` {
		t.Errorf("Fetch() = %q", data)
	}
	if !strings.HasPrefix(gotUA, "NodeWatch") || gotAccept != "application/json" {
		t.Errorf("headers: User-Agent=%q Accept=%q", gotUA, gotAccept)
	}
}

func TestFetcherRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	if _, err := NewFetcher(server.URL, testFetchConfig()).Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetcherGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, testFetchConfig()).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Errorf("Fetch() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetcherSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1025)))
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.RetryAttempts = 0
	_, err := NewFetcher(server.URL, cfg).Fetch(context.Background())
	if !errors.Is(err, ErrFeedTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrFeedTooLarge", err)
	}
}

func TestFetcherExactlyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	data, err := NewFetcher(server.URL, testFetchConfig()).Fetch(context.Background())
	if err != nil || len(data) != 1024 {
		t.Errorf("Fetch() = (%d bytes, %v), want 1024 bytes", len(data), err)
	}
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := testFetchConfig()
	cfg.FetchTimeout = 50 * time.Millisecond
	cfg.RetryAttempts = 0

	start := time.Now()
	_, err := NewFetcher(server.URL, cfg).Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Fetch() took %v, timeout not applied", time.Since(start))
	}
}

func TestFetcherCircuitOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.RetryAttempts = 0
	f := NewFetcher(server.URL, cfg)

	for i := 0; i < 5; i++ {
		_, _ = f.Fetch(context.Background())
	}
	if f.BreakerState() != "open" {
		t.Fatalf("BreakerState() = %q, want open", f.BreakerState())
	}

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Fetch() with open circuit error = %v, want ErrOpenState", err)
	}
	if calls.Load() != 5 {
		t.Errorf("server calls = %d, want 5 (no call while open)", calls.Load())
	}
}

func TestFetcherContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.RetryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewFetcher(server.URL, cfg).Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}
