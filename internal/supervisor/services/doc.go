// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

/*
Package services adapts server components to suture.Service.

Each wrapper turns a component lifecycle into suture's Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService wraps *http.Server. ListenAndServe runs in a goroutine and
Shutdown is called with a bounded timeout when ctx ends.

SchedulerService wraps the reconciliation scheduler. Start runs when the
service starts and Stop when ctx ends, so an in-flight scheduled run
finishes before the process exits.

Both return ctx.Err() on a clean shutdown, which suture treats as a normal
stop, and a wrapped error on failure, which triggers a restart.
*/
package services
