// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/nodewatch/internal/api"
	"github.com/tomtom215/nodewatch/internal/app"
	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/supervisor"
	"github.com/tomtom215/nodewatch/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	app.InitLogging(cfg)

	logging.Info().
		Str("instance", cfg.UI.InstanceName).
		Str("root_url", cfg.URLs.Root).
		Str("nodes_url", cfg.URLs.Nodes).
		Str("db_driver", cfg.Database.Driver).
		Dur("interval", cfg.Reconcile.Interval).
		Msg("Starting NodeWatch")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("NodeWatch stopped with error")
	}
	logging.Info().Msg("NodeWatch stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	handler, err := api.NewHandler(cfg, components.Store, components.Executor, components.Dispatcher, components.Scheduler)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler)

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting on /prepare_action is DISABLED")
	}
	if cfg.Server.CronToken == "" {
		logging.Warn().Msg("No cron_token configured, anyone can trigger /cron")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddSchedulerService(services.NewSchedulerService(components.Scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	treeErr := tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// A canceled ctx means a shutdown signal; anything else is a failure.
	if ctx.Err() != nil {
		return nil
	}
	if treeErr == nil {
		treeErr = errors.New("supervisor tree stopped unexpectedly")
	}
	return treeErr
}
