// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	dbPath string

	rootCmd = &cobra.Command{
		Use:   "mcadmin",
		Short: "A cli to administer a Mission Control deployment",
		Long: `mcadmin runs maintenance passes against a Mission Control
				database: replaying failed gateway provisioning and
				verifying gateway sessions.`,
	}

	// --- Agent Maintenance ---
	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Replay gateway provisioning for agents flagged pending_sync",
		Run:   runReconcile, // Defined in cmd_reconcile.go
	}

	// --- Gateway Maintenance ---
	gatewaySyncCmd = &cobra.Command{
		Use:   "gateway-sync",
		Short: "Ensure every gateway's main session exists on its host",
		Run:   runGatewaySync, // Defined in cmd_reconcile.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./missioncontrol.db",
		"Path to the Mission Control SQLite database")
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(gatewaySyncCmd)
}
