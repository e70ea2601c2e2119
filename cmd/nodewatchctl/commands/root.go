// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Package commands holds the cobra commands of nodewatchctl.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/nodewatch/internal/action"
	"github.com/tomtom215/nodewatch/internal/app"
	"github.com/tomtom215/nodewatch/internal/config"
)

// loadConfig is replaced in tests.
var loadConfig = config.LoadWithKoanf

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nodewatchctl",
		Short:         "Operate a NodeWatch instance",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		NewGenkeyCmd(),
		NewReconcileCmd(),
		NewSignTokenCmd(),
		NewVerifyTokenCmd(),
	)
	return root
}

// signingKey returns the key from a --key flag value, or from the loaded
// configuration when hexSecret is empty.
func signingKey(hexSecret string) (action.Key, *config.Config, error) {
	if hexSecret != "" {
		cfg := &config.Config{Secrets: config.SecretsConfig{ActionSigningKey: hexSecret}}
		key, err := app.SigningKey(cfg)
		return key, nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	key, err := app.SigningKey(cfg)
	return key, cfg, err
}
