// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package app wires configuration into the running components. The server
// and nodewatchctl share it so that both see the same store and the same
// reconciliation pipeline.
package app

import (
	"context"
	"fmt"

	"github.com/tomtom215/nodewatch/internal/action"
	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/notify"
	"github.com/tomtom215/nodewatch/internal/reconcile"
	"github.com/tomtom215/nodewatch/internal/store"
)

// Components are the wired parts of one NodeWatch instance.
type Components struct {
	Config     *config.Config
	Store      *store.SQLStore
	Executor   *action.Executor
	Dispatcher *notify.Dispatcher
	Reconciler *reconcile.Reconciler
	Scheduler  *reconcile.Scheduler
}

// Options adjust Build.
type Options struct {
	// Mailer replaces the SMTP mailer, e.g. for dry runs.
	Mailer notify.Mailer
}

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = cfg.Logging.Format
	lc.Caller = cfg.Logging.Caller
	logging.Init(lc)
}

// Build opens the database, creates the schema and wires every component.
// The caller must Close the result.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Components, error) {
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	st, err := store.New(db, cfg.Database.Driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := st.InitSchema(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	renderer, err := notify.NewRenderer(cfg.UI, cfg.URLs)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = notify.NewSMTPMailer(cfg.Secrets, cfg.UI.EmailFrom, cfg.Notify)
	}
	dispatcher := notify.NewDispatcher(st, mailer, renderer, cfg)

	fetcher := reconcile.NewFetcher(cfg.URLs.Nodes, cfg.Reconcile)
	reconciler := reconcile.NewReconciler(fetcher, st, dispatcher, cfg.UI.MinOnlineNodes)

	return &Components{
		Config:     cfg,
		Store:      st,
		Executor:   action.NewExecutor(st),
		Dispatcher: dispatcher,
		Reconciler: reconciler,
		Scheduler:  reconcile.NewScheduler(reconciler, cfg.Reconcile.Interval),
	}, nil
}

// SigningKey derives the action token key from the configured secret.
func SigningKey(cfg *config.Config) (action.Key, error) {
	secret, err := cfg.Secrets.SigningKey()
	if err != nil {
		return nil, err
	}
	return action.DeriveKey(secret)
}

// Close releases the database.
func (c *Components) Close() error {
	return c.Store.Close()
}
