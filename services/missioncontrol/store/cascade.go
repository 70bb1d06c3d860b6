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
	"fmt"
	"strings"
)

// CascadeStatement is one scoped delete in a tenant-removal sequence.
// SQL references the root organization id with one or more '?'
// placeholders; every placeholder receives the same id.
type CascadeStatement struct {
	Table string
	SQL   string
}

// boardsOfOrg scopes a subquery to all boards owned by the organization.
const boardsOfOrg = `SELECT id FROM boards WHERE organization_id = ?`

// OrgCascadeStatements is the fixed, hand-ordered delete sequence for
// organization removal: leaves first, the organization row last. The
// order is load-bearing — every statement must retire rows that
// reference a table deleted later. activity_events appears twice because
// the table carries two independent foreign keys (agent and task), and
// each access-grant table appears twice because its rows hang off both a
// board and a member/invite.
//
// Tests assert this exact sequence; do not reorder without re-deriving
// the dependency graph.
var OrgCascadeStatements = []CascadeStatement{
	{"activity_events", `DELETE FROM activity_events WHERE agent_id IN (
		SELECT a.id FROM agents a JOIN boards b ON a.board_id = b.id WHERE b.organization_id = ?)`},
	{"activity_events", `DELETE FROM activity_events WHERE task_id IN (
		SELECT t.id FROM tasks t JOIN boards b ON t.board_id = b.id WHERE b.organization_id = ?)`},
	{"task_dependencies", `DELETE FROM task_dependencies WHERE board_id IN (` + boardsOfOrg + `)`},
	{"task_fingerprints", `DELETE FROM task_fingerprints WHERE board_id IN (` + boardsOfOrg + `)`},
	{"approvals", `DELETE FROM approvals WHERE board_id IN (` + boardsOfOrg + `)`},
	{"board_memory", `DELETE FROM board_memory WHERE board_id IN (` + boardsOfOrg + `)`},
	{"board_onboarding_sessions", `DELETE FROM board_onboarding_sessions WHERE board_id IN (` + boardsOfOrg + `)`},
	{"organization_board_access", `DELETE FROM organization_board_access WHERE board_id IN (` + boardsOfOrg + `)`},
	{"organization_invite_board_access", `DELETE FROM organization_invite_board_access WHERE board_id IN (` + boardsOfOrg + `)`},
	{"organization_board_access", `DELETE FROM organization_board_access WHERE organization_member_id IN (
		SELECT id FROM organization_members WHERE organization_id = ?)`},
	{"organization_invite_board_access", `DELETE FROM organization_invite_board_access WHERE organization_invite_id IN (
		SELECT id FROM organization_invites WHERE organization_id = ?)`},
	{"tasks", `DELETE FROM tasks WHERE board_id IN (` + boardsOfOrg + `)`},
	{"agents", `DELETE FROM agents WHERE board_id IN (` + boardsOfOrg + `)`},
	{"boards", `DELETE FROM boards WHERE organization_id = ?`},
	{"board_group_memory", `DELETE FROM board_group_memory WHERE board_group_id IN (
		SELECT id FROM board_groups WHERE organization_id = ?)`},
	{"board_groups", `DELETE FROM board_groups WHERE organization_id = ?`},
	{"gateways", `DELETE FROM gateways WHERE organization_id = ?`},
	{"organization_invites", `DELETE FROM organization_invites WHERE organization_id = ?`},
	{"organization_members", `DELETE FROM organization_members WHERE organization_id = ?`},
	{"users", `DELETE FROM users WHERE active_organization_id = ?`},
	{"organizations", `DELETE FROM organizations WHERE id = ?`},
}

// DeleteOrganizationCascade removes an organization and every row that
// transitively references it, in OrgCascadeStatements order, inside one
// transaction with a single commit.
//
// The caller is responsible for the owner-role authorization check; this
// method issues delete statements unconditionally. Deleting an id that
// does not exist is a successful no-op (every statement matches zero
// rows).
func (s *Store) DeleteOrganizationCascade(ctx context.Context, orgID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range OrgCascadeStatements {
			if _, err := tx.ExecContext(ctx, stmt.SQL, scopeArgs(stmt.SQL, orgID)...); err != nil {
				return fmt.Errorf("cascade delete from %s: %w", stmt.Table, err)
			}
		}
		return nil
	})
}

// DeleteBoardCascade removes a board, its board-scoped leaves, and its
// access-grant rows in one transaction with a single commit.
func (s *Store) DeleteBoardCascade(ctx context.Context, boardID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return deleteBoardInTx(ctx, tx, boardID)
	})
}

// DeleteBoardGroupCascade removes a board group, its boards (each via
// the board slice), and its group memory, inside one transaction.
func (s *Store) DeleteBoardGroupCascade(ctx context.Context, groupID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM boards WHERE board_group_id = ?`, groupID)
		if err != nil {
			return fmt.Errorf("list group boards: %w", err)
		}
		var boardIDs []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan board id: %w", err)
			}
			boardIDs = append(boardIDs, id)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("iterate group boards: %w", err)
		}
		_ = rows.Close()

		for _, boardID := range boardIDs {
			if err := deleteBoardInTx(ctx, tx, boardID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM board_group_memory WHERE board_group_id = ?`, groupID); err != nil {
			return fmt.Errorf("delete board_group_memory: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM board_groups WHERE id = ?`, groupID); err != nil {
			return fmt.Errorf("delete board_groups: %w", err)
		}
		return nil
	})
}

// boardCascadeStatements is the narrower slice executed for a single
// board: board-scoped leaves, access grants, then the board row.
var boardCascadeStatements = []CascadeStatement{
	{"activity_events", `DELETE FROM activity_events WHERE agent_id IN (SELECT id FROM agents WHERE board_id = ?)`},
	{"activity_events", `DELETE FROM activity_events WHERE task_id IN (SELECT id FROM tasks WHERE board_id = ?)`},
	{"task_dependencies", `DELETE FROM task_dependencies WHERE board_id = ?`},
	{"task_fingerprints", `DELETE FROM task_fingerprints WHERE board_id = ?`},
	{"approvals", `DELETE FROM approvals WHERE board_id = ?`},
	{"board_memory", `DELETE FROM board_memory WHERE board_id = ?`},
	{"board_onboarding_sessions", `DELETE FROM board_onboarding_sessions WHERE board_id = ?`},
	{"organization_board_access", `DELETE FROM organization_board_access WHERE board_id = ?`},
	{"organization_invite_board_access", `DELETE FROM organization_invite_board_access WHERE board_id = ?`},
	{"tasks", `DELETE FROM tasks WHERE board_id = ?`},
	{"agents", `DELETE FROM agents WHERE board_id = ?`},
	{"boards", `DELETE FROM boards WHERE id = ?`},
}

func deleteBoardInTx(ctx context.Context, tx *sql.Tx, boardID string) error {
	for _, stmt := range boardCascadeStatements {
		if _, err := tx.ExecContext(ctx, stmt.SQL, scopeArgs(stmt.SQL, boardID)...); err != nil {
			return fmt.Errorf("board cascade delete from %s: %w", stmt.Table, err)
		}
	}
	return nil
}

// scopeArgs repeats the root id once per placeholder in the statement.
func scopeArgs(query, id string) []any {
	n := strings.Count(query, "?")
	args := make([]any, n)
	for i := range args {
		args[i] = id
	}
	return args
}
