// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/nodewatch/internal/action"
)

// NewGenkeyCmd prints a fresh ACTION_SIGNING_KEY.
func NewGenkeyCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Print a new random hex signing key",
		Long: "Print a new random hex secret for ACTION_SIGNING_KEY.\n" +
			"Changing the key invalidates every confirmation link sent so far.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < action.MinSecretBytes {
				return fmt.Errorf("--bytes must be at least %d", action.MinSecretBytes)
			}
			secret := make([]byte, size)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("failed to read random bytes: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(secret))
			return err
		},
	}

	cmd.Flags().IntVar(&size, "bytes", 32, "Secret length in bytes")
	return cmd
}
