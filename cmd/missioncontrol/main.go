// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command missioncontrol starts the Mission Control HTTP server.
//
// This is the main entry point for the containerized service. It reads
// configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - MISSIONCONTROL_PORT: HTTP server port (default: 12300)
//   - MISSIONCONTROL_DB_PATH: SQLite database file (default: ./missioncontrol.db)
//   - MISSIONCONTROL_LOG_DIR: directory for JSON log files (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//   - GIN_MODE: Gin framework mode - debug, release, test
//
// # Usage
//
//	# Build
//	go build -o missioncontrol ./cmd/missioncontrol
//
//	# Run
//	./missioncontrol
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/MissionControl/pkg/logging"
	"github.com/AleutianAI/MissionControl/services/missioncontrol"
)

func main() {
	// Setup structured logging. The server always emits JSON; file
	// logging is enabled when MISSIONCONTROL_LOG_DIR is set.
	logger := logging.New(logging.Config{
		Service: "missioncontrol",
		JSON:    true,
		LogDir:  os.Getenv("MISSIONCONTROL_LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := missioncontrol.Config{
		Port:         getEnvInt("MISSIONCONTROL_PORT", 12300),
		DatabasePath: getEnvString("MISSIONCONTROL_DB_PATH", "./missioncontrol.db"),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GinMode:      os.Getenv("GIN_MODE"),
	}

	slog.Info("Starting Mission Control",
		"port", cfg.Port,
		"db_path", cfg.DatabasePath,
	)

	// Create the service with default (no-op) extension options.
	// Hosted builds will pass custom ServiceOptions here.
	svc, err := missioncontrol.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create Mission Control: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Mission Control error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
