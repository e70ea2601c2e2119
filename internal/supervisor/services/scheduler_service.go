// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package services

import (
	"context"
	"fmt"
)

// SchedulerManager is the lifecycle of *reconcile.Scheduler.
type SchedulerManager interface {
	Start(ctx context.Context) error
	Stop()
}

// SchedulerService runs the reconciliation scheduler under a supervisor.
type SchedulerService struct {
	manager SchedulerManager
	name    string
}

// NewSchedulerService wraps manager.
func NewSchedulerService(manager SchedulerManager) *SchedulerService {
	return &SchedulerService{
		manager: manager,
		name:    "reconcile-scheduler",
	}
}

// Serve implements suture.Service. A failed Start is returned so that the
// supervisor retries with backoff.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("reconcile scheduler start failed: %w", err)
	}

	<-ctx.Done()
	s.manager.Stop()
	return ctx.Err()
}

// String names the service in supervisor events.
func (s *SchedulerService) String() string {
	return s.name
}
