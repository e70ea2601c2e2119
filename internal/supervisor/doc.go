// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

	RootSupervisor ("nodewatch")
	├── SchedulerSupervisor ("scheduler-layer")
	│   └── SchedulerService (reconciliation loop)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with backoff. Supervisor events are logged
through sutureslog into the zerolog logger of package logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddSchedulerService(services.NewSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

See package services for the service wrappers.
*/
package supervisor
