// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mcadmin is the operator CLI for a Mission Control deployment.
// It works directly against the SQLite database, so run it on the host
// that owns the database file while the server is stopped or idle.
package main

import (
	"log"
	"log/slog"

	"github.com/AleutianAI/MissionControl/pkg/logging"
)

func main() {
	logger := logging.New(logging.Config{Service: "mcadmin"})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
