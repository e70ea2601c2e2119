// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tomtom215/nodewatch/internal/logging"
)

// ErrRunInProgress is returned by RunNow while another run is active.
var ErrRunInProgress = errors.New("reconciliation already in progress")

// Runner performs one reconciliation run.
type Runner interface {
	Reconcile(ctx context.Context) (*UpdateResult, error)
}

// Status is a snapshot of scheduler state.
type Status struct {
	Interval        time.Duration `json:"interval"`
	LastRunAt       time.Time     `json:"last_run_at,omitempty"`
	LastSuccessAt   time.Time     `json:"last_success_at,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
	LastOutcome     string        `json:"last_outcome,omitempty"`
	LastOnlineCount int           `json:"last_online_count"`
	LastChanges     int           `json:"last_changes"`
	NextRunAt       time.Time     `json:"next_run_at,omitempty"`
	Running         bool          `json:"running"`
}

// Scheduler runs reconciliations on a fixed interval and on demand. At most
// one run is active at a time; overlapping requests are rejected.
type Scheduler struct {
	runner   Runner
	interval time.Duration

	mu     sync.RWMutex
	status Status

	loopMu sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. An interval of 0 disables the timer so
// runs only happen through RunNow.
func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		status:   Status{Interval: interval},
	}
}

// Start begins the periodic loop. The first run happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		logging.Info().Msg("Periodic reconciliation disabled, waiting for /cron")
		return nil
	}

	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.stopCh != nil {
		return errors.New("scheduler already started")
	}
	s.stopCh = make(chan struct{})

	logging.Info().Dur("interval", s.interval).Msg("Starting reconciliation scheduler")

	s.wg.Add(1)
	go s.loop(ctx, s.stopCh)
	return nil
}

// Stop ends the periodic loop and waits for an in-flight scheduled run.
// It is safe to call when the scheduler is not running.
func (s *Scheduler) Stop() {
	s.loopMu.Lock()
	stopCh := s.stopCh
	s.stopCh = nil
	s.loopMu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	s.wg.Wait()
	logging.Info().Msg("Reconciliation scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	s.runScheduled(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		s.status.NextRunAt = time.Now().Add(s.interval)
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	if _, err := s.RunNow(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logging.Info().Msg("Skipping scheduled reconciliation, previous run still active")
			return
		}
		// Reconcile already logged the failure with its correlation id.
		logging.Debug().Err(err).Msg("Scheduled reconciliation failed")
	}
}

// RunNow performs one run synchronously. A panic inside the runner is
// returned as an error and leaves the scheduler ready for the next run.
func (s *Scheduler) RunNow(ctx context.Context) (result *UpdateResult, err error) {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.status.Running = true
	s.status.LastRunAt = time.Now()
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Reconciliation panicked")
			result, err = nil, fmt.Errorf("reconciliation panicked: %v", r)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.status.Running = false
		if err != nil {
			s.status.LastError = err.Error()
			s.status.LastOutcome = "error"
			return
		}
		s.status.LastError = ""
		s.status.LastOutcome = result.Outcome.String()
		s.status.LastOnlineCount = result.OnlineCount
		s.status.LastChanges = len(result.Changes)
		if result.Outcome == AllOk {
			s.status.LastSuccessAt = time.Now()
		}
	}()

	result, err = s.runner.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Status returns a copy of the current state.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
