// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
)

const (
	userAgent   = "NodeWatch-Feed-Fetcher/1.0"
	breakerName = "node-feed"
)

// ErrFeedTooLarge is returned when the response exceeds max_feed_bytes.
var ErrFeedTooLarge = errors.New("node feed exceeds size limit")

// Fetcher downloads the node feed.
//
// Each attempt is bounded by FetchTimeout and retried with exponential
// backoff. Attempts run through a circuit breaker so an unreachable map
// server is not hammered every interval; while open, Fetch fails fast.
type Fetcher struct {
	url    string
	cfg    config.ReconcileConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
}

// NewFetcher creates a fetcher for url.
func NewFetcher(url string, cfg config.ReconcileConfig) *Fetcher {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     5 * time.Minute,

		// Opens after 5 consecutive failed attempts
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},

		// Caller cancellation does not count as a failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})

	return &Fetcher{
		url: url,
		cfg: cfg,
		client: &http.Client{}, // per-attempt timeout is set on the request context
		cb:     cb,
	}
}

// Fetch returns the raw feed body.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	return f.fetchWithRetry(ctx)
}

// BreakerState reports the circuit breaker state for status output.
func (f *Fetcher) BreakerState() string {
	return f.cb.State().String()
}

// fetchWithRetry fetches with exponential backoff retries.
func (f *Fetcher) fetchWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	delay := f.cfg.RetryDelay

	for attempt := 0; attempt <= f.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			logging.Ctx(ctx).Info().
				Int("attempt", attempt).
				Int("max_attempts", f.cfg.RetryAttempts).
				Dur("delay", delay).
				Msg("Retrying node feed fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		data, err := f.cb.Execute(func() ([]byte, error) {
			return f.fetch(ctx)
		})
		if err == nil {
			metrics.RecordFeedFetch("success")
			return data, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordFeedFetch("circuit_open")
			return nil, fmt.Errorf("node feed unavailable: %w", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Ctx(ctx).Warn().Err(err).Int("attempt", attempt+1).Msg("Node feed fetch attempt failed")
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", f.cfg.RetryAttempts+1, lastErr)
}

// fetch performs a single HTTP GET request.
func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.RecordFeedFetch("network_error")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFeedFetch("http_error")
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Read one byte past the limit to tell "exactly at limit" from "over".
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxFeedBytes+1))
	if err != nil {
		metrics.RecordFeedFetch("network_error")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxFeedBytes {
		metrics.RecordFeedFetch("too_large")
		return nil, fmt.Errorf("%w (%d bytes)", ErrFeedTooLarge, f.cfg.MaxFeedBytes)
	}
	return data, nil
}
