// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

const agentColumns = `id, board_id, name, status, openclaw_session_id, agent_token_hash,
	heartbeat_config, identity_profile, is_board_lead, pending_sync, last_seen_at, created_at, updated_at`

// CreateAgent inserts an agent row. ID, created_at and updated_at are
// assigned here.
func (s *Store) CreateAgent(ctx context.Context, agent *Agent) error {
	agent.ID = uuid.NewString()
	if agent.Status == "" {
		agent.Status = "provisioning"
	}
	agent.CreatedAt = utcNow()
	agent.UpdatedAt = agent.CreatedAt

	heartbeat, err := jsonColumn(agent.HeartbeatConfig)
	if err != nil {
		return err
	}
	identity, err := jsonColumn(agent.IdentityProfile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agents (`+agentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, nullable(agent.BoardID), agent.Name, agent.Status,
		nullable(agent.OpenClawSessionID), nullable(agent.AgentTokenHash),
		heartbeat, identity, boolInt(agent.IsBoardLead), boolInt(agent.PendingSync),
		formatTimePtr(agent.LastSeenAt), formatTime(agent.CreatedAt), formatTime(agent.UpdatedAt))
	return translateErr(err)
}

// GetAgent fetches an agent by id.
func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

// GetLeadAgent returns the lead agent for a board, or ErrNotFound when
// none exists. When historical data holds more than one lead row the
// earliest-created one wins.
func (s *Store) GetLeadAgent(ctx context.Context, boardID string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE board_id = ? AND is_board_lead = 1
		 ORDER BY created_at ASC LIMIT 1`, boardID)
	return scanAgent(row)
}

// ListBoardAgents returns all agents assigned to a board.
func (s *Store) ListBoardAgents(ctx context.Context, boardID string) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE board_id = ? ORDER BY created_at ASC`, boardID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// UpdateAgent persists mutable agent fields and bumps updated_at.
func (s *Store) UpdateAgent(ctx context.Context, agent *Agent) error {
	agent.UpdatedAt = utcNow()

	heartbeat, err := jsonColumn(agent.HeartbeatConfig)
	if err != nil {
		return err
	}
	identity, err := jsonColumn(agent.IdentityProfile)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET board_id = ?, name = ?, status = ?, openclaw_session_id = ?,
		 agent_token_hash = ?, heartbeat_config = ?, identity_profile = ?, is_board_lead = ?,
		 pending_sync = ?, last_seen_at = ?, updated_at = ?
		 WHERE id = ?`,
		nullable(agent.BoardID), agent.Name, agent.Status, nullable(agent.OpenClawSessionID),
		nullable(agent.AgentTokenHash), heartbeat, identity, boolInt(agent.IsBoardLead),
		boolInt(agent.PendingSync), formatTimePtr(agent.LastSeenAt), formatTime(agent.UpdatedAt),
		agent.ID)
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchAgentHeartbeat records a heartbeat: last_seen_at moves to now and
// a "working" status is applied when the agent was idle.
func (s *Store) TouchAgentHeartbeat(ctx context.Context, id string, status string) (*Agent, error) {
	agent, err := s.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	now := utcNow()
	agent.LastSeenAt = &now
	if status != "" {
		agent.Status = status
	}
	if err := s.UpdateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// ListPendingSyncAgents returns agents whose remote provisioning or
// identity push has not completed.
func (s *Store) ListPendingSyncAgents(ctx context.Context) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE pending_sync = 1 ORDER BY created_at ASC`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	var boardID, sessionID, tokenHash, heartbeat, identity, lastSeen sql.NullString
	var lead, pending int
	var created, updated string
	if err := row.Scan(&a.ID, &boardID, &a.Name, &a.Status, &sessionID, &tokenHash,
		&heartbeat, &identity, &lead, &pending, &lastSeen, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	a.BoardID = strPtr(boardID)
	a.OpenClawSessionID = strPtr(sessionID)
	a.AgentTokenHash = strPtr(tokenHash)
	a.IsBoardLead = lead != 0
	a.PendingSync = pending != 0
	if err := scanJSON(heartbeat, &a.HeartbeatConfig); err != nil {
		return nil, err
	}
	if err := scanJSON(identity, &a.IdentityProfile); err != nil {
		return nil, err
	}
	var err error
	if a.LastSeenAt, err = parseTimePtr(lastSeen); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

// AgentTokenRecord returns the stored token digest record for an agent.
// The cryptographic check lives in the tokens package; ErrNotFound covers
// both a missing agent and an agent that was never issued a token.
func (s *Store) AgentTokenRecord(ctx context.Context, id string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT agent_token_hash FROM agents WHERE id = ?`, id)
	var hash sql.NullString
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !hash.Valid || hash.String == "" {
		return "", ErrNotFound
	}
	return hash.String, nil
}
