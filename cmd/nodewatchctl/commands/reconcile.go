// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package commands

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/nodewatch/internal/app"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/notify"
)

// discardMailer logs notifications instead of sending them.
type discardMailer struct{}

func (discardMailer) Send(ctx context.Context, msg *notify.Message) error {
	logging.Ctx(ctx).Info().
		Str("to", logging.MaskEmail(msg.To)).
		Str("subject", msg.Subject).
		Msg("Notification suppressed (--no-mail)")
	return nil
}

// NewReconcileCmd runs one reconciliation against the configured store.
// The server must not use an embedded database file at the same time.
func NewReconcileCmd() *cobra.Command {
	var noMail bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation and print the result as JSON",
		Long: "Fetch the node feed once, update the directory and notify\n" +
			"subscribers, for setups that trigger runs from an external cron.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app.InitLogging(cfg)

			var opts app.Options
			if noMail {
				opts.Mailer = discardMailer{}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			components, err := app.Build(ctx, cfg, opts)
			if err != nil {
				return err
			}
			defer components.Close()

			result, err := components.Reconciler.Reconcile(ctx)
			if err != nil {
				return fmt.Errorf("reconciliation failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if result.NotificationError != "" {
				return fmt.Errorf("some notifications failed: %s", result.NotificationError)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noMail, "no-mail", false, "Update the directory but only log notifications")
	return cmd
}
