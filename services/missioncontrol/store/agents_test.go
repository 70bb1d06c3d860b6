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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBoard(t *testing.T, s *Store) *Board {
	t.Helper()
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	board := &Board{OrganizationID: org.ID, Name: "Launch", Slug: "launch"}
	require.NoError(t, s.CreateBoard(ctx, board))
	return board
}

func TestGetLeadAgent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board := seedBoard(t, s)

	_, err := s.GetLeadAgent(ctx, board.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	worker := &Agent{BoardID: &board.ID, Name: "Worker"}
	require.NoError(t, s.CreateAgent(ctx, worker))

	lead := &Agent{
		BoardID:     &board.ID,
		Name:        "Lead",
		IsBoardLead: true,
		IdentityProfile: map[string]string{
			"role":                "Board Lead",
			"communication_style": "direct, concise, practical",
			"emoji":               ":gear:",
		},
	}
	require.NoError(t, s.CreateAgent(ctx, lead))

	got, err := s.GetLeadAgent(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)
	assert.Equal(t, "Board Lead", got.IdentityProfile["role"])
}

func TestSecondLeadOnBoardConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board := seedBoard(t, s)

	require.NoError(t, s.CreateAgent(ctx, &Agent{BoardID: &board.ID, Name: "Lead", IsBoardLead: true}))

	err := s.CreateAgent(ctx, &Agent{BoardID: &board.ID, Name: "Usurper", IsBoardLead: true})
	assert.ErrorIs(t, err, ErrConflict)

	// Non-lead agents are unaffected by the partial index.
	require.NoError(t, s.CreateAgent(ctx, &Agent{BoardID: &board.ID, Name: "Worker"}))
}

func TestTouchAgentHeartbeat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board := seedBoard(t, s)

	agent := &Agent{BoardID: &board.ID, Name: "Worker", Status: "idle"}
	require.NoError(t, s.CreateAgent(ctx, agent))
	require.Nil(t, agent.LastSeenAt)

	got, err := s.TouchAgentHeartbeat(ctx, agent.ID, "working")
	require.NoError(t, err)
	require.NotNil(t, got.LastSeenAt)
	assert.Equal(t, "working", got.Status)

	// Empty status keeps the current one.
	got, err = s.TouchAgentHeartbeat(ctx, agent.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "working", got.Status)

	_, err = s.TouchAgentHeartbeat(ctx, "missing", "working")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAgentTokenRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board := seedBoard(t, s)

	agent := &Agent{BoardID: &board.ID, Name: "Worker"}
	require.NoError(t, s.CreateAgent(ctx, agent))

	// No token issued yet.
	_, err := s.AgentTokenRecord(ctx, agent.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	hash := "pbkdf2_sha256$200000$c2FsdA$ZGlnZXN0"
	agent.AgentTokenHash = &hash
	require.NoError(t, s.UpdateAgent(ctx, agent))

	got, err := s.AgentTokenRecord(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	_, err = s.AgentTokenRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPendingSyncAgents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board := seedBoard(t, s)

	require.NoError(t, s.CreateAgent(ctx, &Agent{BoardID: &board.ID, Name: "Synced"}))
	require.NoError(t, s.CreateAgent(ctx, &Agent{BoardID: &board.ID, Name: "Stuck", PendingSync: true}))

	pending, err := s.ListPendingSyncAgents(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Stuck", pending[0].Name)
}
