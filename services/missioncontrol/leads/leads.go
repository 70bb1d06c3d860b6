// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package leads provisions the lead agent for a board.
//
// Ensure is idempotent: the first lead on a board wins, repeated calls
// reconcile drifted fields instead of inserting, and remote gateway
// work is strictly best-effort — a gateway outage never rolls back the
// committed agent row.
package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/gateway"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/tokens"
)

const defaultLeadName = "Lead Agent"

// defaultHeartbeat is the heartbeat schedule stamped onto new leads.
var defaultHeartbeat = map[string]any{"every": "10m", "enabled": true}

// identityDefaults seed the lead persona; explicit non-blank overrides
// replace individual keys.
var identityDefaults = map[string]string{
	"role":                "Board Lead",
	"communication_style": "direct, concise, practical",
	"emoji":               ":gear:",
}

// SessionKey is the deterministic main session key for a board's lead.
func SessionKey(boardID string) string {
	return fmt.Sprintf("agent:lead-%s:main", boardID)
}

// SessionClient is the slice of the gateway client Ensure needs.
type SessionClient interface {
	EnsureSession(ctx context.Context, sessionKey, label string) error
	SendMessage(ctx context.Context, sessionKey, message string, deliver bool) error
}

// Deps carries the collaborators for Ensure. GatewayFailures may be nil.
type Deps struct {
	Store           *store.Store
	Sessions        SessionClient
	Logger          *slog.Logger
	GatewayFailures prometheus.Counter
}

// Options tune one Ensure call.
type Options struct {
	AgentName       string
	IdentityProfile map[string]string
}

// Result is the outcome of an Ensure call. RawToken is only set for a
// freshly created agent and is never persisted.
type Result struct {
	Agent    *store.Agent
	Created  bool
	RawToken string
}

// Ensure makes sure board has exactly one lead agent.
//
// An existing lead is reconciled: the display name follows a new desired
// name and a missing session key is backfilled; the row is only written
// when something actually changed. A missing lead is created with merged
// identity defaults, a fresh hashed token, and the deterministic session
// key, committed before any network work. Gateway calls after the commit
// are best-effort; on failure the agent is flagged pending_sync and the
// error is swallowed.
func Ensure(ctx context.Context, deps Deps, board *store.Board, gw *store.Gateway, opts Options) (*Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sessions == nil && gw != nil && gw.URL != "" {
		var token string
		if gw.Token != nil {
			token = *gw.Token
		}
		deps.Sessions = gateway.NewClient(gateway.Config{BaseURL: gw.URL, Token: token}, 0)
	}

	existing, err := deps.Store.GetLeadAgent(ctx, board.ID)
	if err == nil {
		return reconcileLead(ctx, deps, board, existing, opts)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("look up lead agent: %w", err)
	}

	profile := make(map[string]string, len(identityDefaults))
	for k, v := range identityDefaults {
		profile[k] = v
	}
	for k, v := range opts.IdentityProfile {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			profile[k] = trimmed
		}
	}

	rawToken, err := tokens.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate agent token: %w", err)
	}
	hash, err := tokens.Hash(rawToken)
	if err != nil {
		return nil, fmt.Errorf("hash agent token: %w", err)
	}

	name := opts.AgentName
	if name == "" {
		name = defaultLeadName
	}
	sessionKey := SessionKey(board.ID)
	agent := &store.Agent{
		BoardID:           &board.ID,
		Name:              name,
		Status:            "provisioning",
		OpenClawSessionID: &sessionKey,
		AgentTokenHash:    &hash,
		HeartbeatConfig:   defaultHeartbeat,
		IdentityProfile:   profile,
		IsBoardLead:       true,
	}
	if err := deps.Store.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}

	// The row is committed. Everything past this point must not fail the
	// call.
	if err := provisionRemote(ctx, deps, agent); err != nil {
		logger.Warn("lead agent gateway provisioning failed",
			"board_id", board.ID, "agent_id", agent.ID, "error", err)
		if deps.GatewayFailures != nil {
			deps.GatewayFailures.Inc()
		}
		agent.PendingSync = true
		if uerr := deps.Store.UpdateAgent(ctx, agent); uerr != nil {
			logger.Error("could not flag agent for resync", "agent_id", agent.ID, "error", uerr)
		}
	}

	return &Result{Agent: agent, Created: true, RawToken: rawToken}, nil
}

func reconcileLead(ctx context.Context, deps Deps, board *store.Board, agent *store.Agent, opts Options) (*Result, error) {
	changed := false
	if opts.AgentName != "" && agent.Name != opts.AgentName {
		agent.Name = opts.AgentName
		changed = true
	}
	if agent.OpenClawSessionID == nil || *agent.OpenClawSessionID == "" {
		key := SessionKey(board.ID)
		agent.OpenClawSessionID = &key
		changed = true
	}
	if changed {
		if err := deps.Store.UpdateAgent(ctx, agent); err != nil {
			return nil, err
		}
	}
	return &Result{Agent: agent, Created: false}, nil
}

// Resync replays the gateway provisioning for an agent that was flagged
// pending_sync. On success the flag is cleared; on failure the agent
// stays flagged and the gateway error is returned.
func Resync(ctx context.Context, deps Deps, agent *store.Agent) error {
	if err := provisionRemote(ctx, deps, agent); err != nil {
		if deps.GatewayFailures != nil {
			deps.GatewayFailures.Inc()
		}
		return err
	}
	if agent.PendingSync {
		agent.PendingSync = false
		if err := deps.Store.UpdateAgent(ctx, agent); err != nil {
			return fmt.Errorf("clear pending_sync: %w", err)
		}
	}
	return nil
}

func provisionRemote(ctx context.Context, deps Deps, agent *store.Agent) error {
	if deps.Sessions == nil || agent.OpenClawSessionID == nil {
		return nil
	}
	sessionKey := *agent.OpenClawSessionID
	if err := deps.Sessions.EnsureSession(ctx, sessionKey, agent.Name); err != nil {
		return err
	}
	welcome := fmt.Sprintf(
		"Hello %s. Your workspace has been provisioned.\n\n"+
			"Start the agent, run BOOT.md, and if BOOTSTRAP.md exists run it once "+
			"then delete it. Begin heartbeats after startup.", agent.Name)
	return deps.Sessions.SendMessage(ctx, sessionKey, welcome, true)
}

// compile-time check that the real client satisfies the interface
var _ SessionClient = (*gateway.Client)(nil)
