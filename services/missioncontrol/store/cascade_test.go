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
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The delete sequence is part of the tenant-removal contract: leaves
// before branches, the organization row last. This pins the exact order.
func TestOrgCascadeOrder(t *testing.T) {
	want := []string{
		"activity_events",
		"activity_events",
		"task_dependencies",
		"task_fingerprints",
		"approvals",
		"board_memory",
		"board_onboarding_sessions",
		"organization_board_access",
		"organization_invite_board_access",
		"organization_board_access",
		"organization_invite_board_access",
		"tasks",
		"agents",
		"boards",
		"board_group_memory",
		"board_groups",
		"gateways",
		"organization_invites",
		"organization_members",
		"users",
		"organizations",
	}

	require.Len(t, OrgCascadeStatements, len(want))
	for i, stmt := range OrgCascadeStatements {
		assert.Equal(t, want[i], stmt.Table, "statement %d", i)
	}
}

// seedOrg populates an organization with one row in every table that the
// cascade touches, returning the org and a second untouched organization
// used to verify scoping.
func seedOrg(t *testing.T, s *Store) (orgID, otherOrgID string) {
	t.Helper()
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Doomed Inc")
	require.NoError(t, err)
	other, err := s.CreateOrganization(ctx, "Survivor LLC")
	require.NoError(t, err)

	user, _, err := s.GetOrCreateUser(ctx, "auth0|doomed", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetActiveOrganization(ctx, user.ID, org.ID))
	member, err := s.EnsureMember(ctx, org.ID, user.ID, "owner")
	require.NoError(t, err)

	gw := &Gateway{OrganizationID: org.ID, Name: "gw", URL: "http://gw", MainSessionKey: "main", WorkspaceRoot: "/srv"}
	require.NoError(t, s.CreateGateway(ctx, gw))

	group := &BoardGroup{OrganizationID: org.ID, Name: "grp", Slug: "grp"}
	require.NoError(t, s.CreateBoardGroup(ctx, group))

	board := &Board{OrganizationID: org.ID, Name: "brd", Slug: "brd", GatewayID: &gw.ID, BoardGroupID: &group.ID}
	require.NoError(t, s.CreateBoard(ctx, board))

	agent := &Agent{BoardID: &board.ID, Name: "Lead", IsBoardLead: true}
	require.NoError(t, s.CreateAgent(ctx, agent))

	task := &Task{BoardID: &board.ID, Title: "t1"}
	require.NoError(t, s.CreateTask(ctx, task))
	task2 := &Task{BoardID: &board.ID, Title: "t2"}
	require.NoError(t, s.CreateTask(ctx, task2))

	require.NoError(t, s.CreateTaskDependency(ctx, &TaskDependency{
		BoardID: board.ID, TaskID: task2.ID, DependsOnTaskID: task.ID,
	}))
	require.NoError(t, s.CreateTaskFingerprint(ctx, &TaskFingerprint{
		BoardID: board.ID, FingerprintHash: "abc123", TaskID: task.ID,
	}))
	require.NoError(t, s.RecordActivity(ctx, &ActivityEvent{
		EventType: "task_created", AgentID: &agent.ID, TaskID: &task.ID,
	}))
	require.NoError(t, s.CreateBoardMemory(ctx, &BoardMemory{
		BoardID: board.ID, Content: "remember this",
	}))
	require.NoError(t, s.CreateBoardGroupMemory(ctx, &BoardGroupMemory{
		BoardGroupID: group.ID, Content: "group context",
	}))
	require.NoError(t, s.CreateOnboardingSession(ctx, &BoardOnboardingSession{
		BoardID: board.ID, SessionKey: "onboarding:" + board.ID,
	}))
	require.NoError(t, s.GrantBoardAccess(ctx, member.ID, board.ID, true, true))

	invite := &OrganizationInvite{OrganizationID: org.ID, InvitedEmail: "x@example.com", Token: uuid.NewString(), Role: "member"}
	require.NoError(t, s.CreateInvite(ctx, invite))
	_, err = s.DB().ExecContext(ctx,
		`INSERT INTO organization_invite_board_access (id, organization_invite_id, board_id, can_read, can_write, created_at, updated_at)
		 VALUES (?, ?, ?, 1, 0, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`,
		uuid.NewString(), invite.ID, board.ID)
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx,
		`INSERT INTO approvals (id, board_id, task_id, agent_id, action_type, confidence, status, created_at)
		 VALUES (?, ?, ?, ?, 'send_email', 80, 'pending', '2026-01-01T00:00:00Z')`,
		uuid.NewString(), board.ID, task.ID, agent.ID)
	require.NoError(t, err)

	return org.ID, other.ID
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	err := s.DB().QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestDeleteOrganizationCascadeLeavesNoOrphans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgID, otherOrgID := seedOrg(t, s)

	require.NoError(t, s.DeleteOrganizationCascade(ctx, orgID))

	empty := []string{
		"activity_events", "task_dependencies", "task_fingerprints", "approvals",
		"board_memory", "board_onboarding_sessions", "organization_board_access",
		"organization_invite_board_access", "tasks", "agents", "boards",
		"board_group_memory", "board_groups", "gateways", "organization_invites",
		"organization_members", "users",
	}
	for _, table := range empty {
		assert.Zero(t, countRows(t, s, table), "table %s should be empty", table)
	}

	// The unrelated organization survives.
	_, err := s.GetOrganization(ctx, orgID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetOrganization(ctx, otherOrgID)
	assert.NoError(t, err)
}

func TestDeleteOrganizationCascadeScopesToOneTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgID, otherOrgID := seedOrg(t, s)

	// Give the surviving org a board graph of its own.
	board := &Board{OrganizationID: otherOrgID, Name: "keep", Slug: "keep"}
	require.NoError(t, s.CreateBoard(ctx, board))
	agent := &Agent{BoardID: &board.ID, Name: "Keeper"}
	require.NoError(t, s.CreateAgent(ctx, agent))
	task := &Task{BoardID: &board.ID, Title: "keep-task"}
	require.NoError(t, s.CreateTask(ctx, task))

	require.NoError(t, s.DeleteOrganizationCascade(ctx, orgID))

	boards, err := s.ListBoards(ctx, otherOrgID)
	require.NoError(t, err)
	assert.Len(t, boards, 1)

	agents, err := s.ListBoardAgents(ctx, board.ID)
	require.NoError(t, err)
	assert.Len(t, agents, 1)

	tasks, err := s.ListBoardTasks(ctx, board.ID, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestDeleteOrganizationCascadeMissingIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, otherOrgID := seedOrg(t, s)
	before := countRows(t, s, "boards")

	require.NoError(t, s.DeleteOrganizationCascade(ctx, uuid.NewString()))
	assert.Equal(t, before, countRows(t, s, "boards"))

	_, err := s.GetOrganization(ctx, otherOrgID)
	assert.NoError(t, err)
}

func TestDeleteBoardCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgID, _ := seedOrg(t, s)
	boards, err := s.ListBoards(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, boards, 1)

	require.NoError(t, s.DeleteBoardCascade(ctx, boards[0].ID))

	assert.Zero(t, countRows(t, s, "boards"))
	assert.Zero(t, countRows(t, s, "tasks"))
	assert.Zero(t, countRows(t, s, "agents"))
	assert.Zero(t, countRows(t, s, "board_memory"))
	assert.Zero(t, countRows(t, s, "organization_board_access"))

	// Org-level rows are untouched by a board delete.
	assert.Equal(t, 1, countRows(t, s, "board_groups"))
	assert.Equal(t, 1, countRows(t, s, "gateways"))
	_, err = s.GetOrganization(ctx, orgID)
	assert.NoError(t, err)
}

func TestDeleteBoardGroupCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgID, _ := seedOrg(t, s)
	groups, err := s.ListBoardGroups(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.NoError(t, s.DeleteBoardGroupCascade(ctx, groups[0].ID))

	assert.Zero(t, countRows(t, s, "board_groups"))
	assert.Zero(t, countRows(t, s, "board_group_memory"))
	assert.Zero(t, countRows(t, s, "boards"))
	assert.Zero(t, countRows(t, s, "tasks"))
}
