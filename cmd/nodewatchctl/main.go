// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

// Command nodewatchctl is the operator tool for a NodeWatch instance. It
// reads the same configuration as the server.
//
//	nodewatchctl genkey
//	nodewatchctl reconcile [--dry-run]
//	nodewatchctl sign-token --node c04a00dd692a --email alice@example.org --op add
//	nodewatchctl verify-token <token>
package main

import (
	"os"

	"github.com/tomtom215/nodewatch/cmd/nodewatchctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
