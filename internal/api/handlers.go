// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/nodewatch/internal/action"
	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/models"
	"github.com/tomtom215/nodewatch/internal/reconcile"
)

// Directory is the read side of the store used by the pages and status
// endpoints.
type Directory interface {
	GetNode(ctx context.Context, id string) (*models.Node, error)
	ListNodes(ctx context.Context) ([]models.Node, error)
	WatchedNodes(ctx context.Context, email string) ([]models.WatchedNode, error)
	Stats(ctx context.Context) (*models.DirectoryStats, error)
	Ping(ctx context.Context) error
}

// ActionRunner applies a verified action to the store.
type ActionRunner interface {
	Run(ctx context.Context, a action.Action) (bool, error)
}

// ConfirmationSender emails the run_action link for a prepared action.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, a action.Action, nodeName, actionURL string) error
}

// ReconcileTrigger runs reconciliations on demand and reports scheduler
// state.
type ReconcileTrigger interface {
	RunNow(ctx context.Context) (*reconcile.UpdateResult, error)
	Status() reconcile.Status
}

// Handler contains dependencies for HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_pages.go: HTML pages and the action flow
//   - handlers_cron.go: reconciliation trigger
//   - handlers_health.go: health and status endpoints
//   - handlers_static.go: static files
type Handler struct {
	directory Directory
	executor  ActionRunner
	confirmer ConfirmationSender
	scheduler ReconcileTrigger
	key       action.Key
	config    *config.Config
	pages     *pageRenderer
	startTime time.Time
}

// NewHandler creates the HTTP handler set. The signing key is derived from
// cfg.Secrets once here.
//
//	handler, err := api.NewHandler(cfg, st, executor, dispatcher, scheduler)
//	router := api.NewRouter(handler)
//	srv := &http.Server{Handler: router.Setup()}
func NewHandler(cfg *config.Config, dir Directory, executor ActionRunner, confirmer ConfirmationSender, scheduler ReconcileTrigger) (*Handler, error) {
	secret, err := cfg.Secrets.SigningKey()
	if err != nil {
		return nil, err
	}
	key, err := action.DeriveKey(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive action signing key: %w", err)
	}

	pages, err := newPageRenderer(cfg.UI, cfg.URLs)
	if err != nil {
		return nil, err
	}

	return &Handler{
		directory: dir,
		executor:  executor,
		confirmer: confirmer,
		scheduler: scheduler,
		key:       key,
		config:    cfg,
		pages:     pages,
		startTime: time.Now(),
	}, nil
}
