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
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/gateway"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/leads"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

const maintenanceTimeout = 2 * time.Minute

func openStore() *store.Store {
	s, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Error opening database %s: %v", dbPath, err)
	}
	return s
}

// gatewayForBoard resolves the gateway record behind a board, if any.
func gatewayForBoard(ctx context.Context, s *store.Store, boardID string) (*store.Gateway, error) {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.GatewayID == nil {
		return nil, fmt.Errorf("board %s has no gateway", boardID)
	}
	return s.GetGateway(ctx, *board.GatewayID)
}

func sessionClient(gw *store.Gateway) *gateway.Client {
	var token string
	if gw.Token != nil {
		token = *gw.Token
	}
	return gateway.NewClient(gateway.Config{BaseURL: gw.URL, Token: token}, 0)
}

// runReconcile replays gateway provisioning for every agent whose
// pending_sync flag is set. Each agent is handled independently; one
// unreachable gateway does not stop the pass.
func runReconcile(_ *cobra.Command, _ []string) {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	s := openStore()
	defer s.Close()

	agents, err := s.ListPendingSyncAgents(ctx)
	if err != nil {
		log.Fatalf("Error listing pending agents: %v", err)
	}
	if len(agents) == 0 {
		slog.Info("no agents pending sync")
		return
	}

	var failed int
	for i := range agents {
		agent := &agents[i]
		if agent.BoardID == nil {
			slog.Warn("skipping agent without board", "agent_id", agent.ID)
			continue
		}
		gw, err := gatewayForBoard(ctx, s, *agent.BoardID)
		if err != nil {
			slog.Warn("could not resolve gateway", "agent_id", agent.ID, "error", err)
			failed++
			continue
		}
		deps := leads.Deps{Store: s, Sessions: sessionClient(gw), Logger: slog.Default()}
		if err := leads.Resync(ctx, deps, agent); err != nil {
			slog.Warn("resync failed", "agent_id", agent.ID, "error", err)
			failed++
			continue
		}
		slog.Info("agent resynced", "agent_id", agent.ID, "board_id", *agent.BoardID)
	}
	slog.Info("reconcile pass finished", "total", len(agents), "failed", failed)
}

// runGatewaySync verifies every gateway's main session exists on its
// host, creating it when missing.
func runGatewaySync(_ *cobra.Command, _ []string) {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	s := openStore()
	defer s.Close()

	gateways, err := s.AllGateways(ctx)
	if err != nil {
		log.Fatalf("Error listing gateways: %v", err)
	}

	var failed int
	for i := range gateways {
		gw := &gateways[i]
		if gw.URL == "" || gw.MainSessionKey == "" {
			slog.Warn("skipping unconfigured gateway", "gateway_id", gw.ID)
			continue
		}
		client := sessionClient(gw)
		if err := client.EnsureSession(ctx, gw.MainSessionKey, "Main Agent"); err != nil {
			slog.Warn("gateway session ensure failed", "gateway_id", gw.ID, "error", err)
			failed++
			continue
		}
		slog.Info("gateway session verified", "gateway_id", gw.ID, "name", gw.Name)
	}
	slog.Info("gateway sync finished", "total", len(gateways), "failed", failed)
}
