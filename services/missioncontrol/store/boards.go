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
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --- Gateways ---

// CreateGateway registers an external orchestration endpoint.
func (s *Store) CreateGateway(ctx context.Context, gw *Gateway) error {
	gw.ID = uuid.NewString()
	gw.CreatedAt = utcNow()
	gw.UpdatedAt = gw.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO gateways (id, organization_id, name, url, token, main_session_key, workspace_root, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gw.ID, gw.OrganizationID, gw.Name, gw.URL, nullable(gw.Token),
		gw.MainSessionKey, gw.WorkspaceRoot, formatTime(gw.CreatedAt), formatTime(gw.UpdatedAt))
	return translateErr(err)
}

// GetGateway fetches a gateway by id.
func (s *Store) GetGateway(ctx context.Context, id string) (*Gateway, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, name, url, token, main_session_key, workspace_root, created_at, updated_at
		 FROM gateways WHERE id = ?`, id)
	return scanGateway(row)
}

// ListGateways returns all gateways for an organization.
func (s *Store) ListGateways(ctx context.Context, orgID string) ([]Gateway, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, name, url, token, main_session_key, workspace_root, created_at, updated_at
		 FROM gateways WHERE organization_id = ? ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var gateways []Gateway
	for rows.Next() {
		gw, err := scanGateway(rows)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, *gw)
	}
	return gateways, rows.Err()
}

// AllGateways returns every gateway across all organizations. Used by
// operator maintenance passes, not by request handlers.
func (s *Store) AllGateways(ctx context.Context) ([]Gateway, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, name, url, token, main_session_key, workspace_root, created_at, updated_at
		 FROM gateways ORDER BY created_at ASC`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var gateways []Gateway
	for rows.Next() {
		gw, err := scanGateway(rows)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, *gw)
	}
	return gateways, rows.Err()
}

// UpdateGateway persists mutable gateway fields and bumps updated_at.
func (s *Store) UpdateGateway(ctx context.Context, gw *Gateway) error {
	gw.UpdatedAt = utcNow()
	res, err := s.db.ExecContext(ctx,
		`UPDATE gateways SET name = ?, url = ?, token = ?, main_session_key = ?, workspace_root = ?, updated_at = ?
		 WHERE id = ?`,
		gw.Name, gw.URL, nullable(gw.Token), gw.MainSessionKey, gw.WorkspaceRoot,
		formatTime(gw.UpdatedAt), gw.ID)
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

// DeleteGateway removes a gateway row. Boards that still reference it
// make the delete fail with ErrConflict.
func (s *Store) DeleteGateway(ctx context.Context, id string) error {
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE gateway_id = ?`, id)
	if err := row.Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("gateway is referenced by %d board(s): %w", n, ErrConflict)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM gateways WHERE id = ?`, id)
	if err != nil {
		return translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGateway(row rowScanner) (*Gateway, error) {
	var gw Gateway
	var token sql.NullString
	var created, updated string
	if err := row.Scan(&gw.ID, &gw.OrganizationID, &gw.Name, &gw.URL, &token,
		&gw.MainSessionKey, &gw.WorkspaceRoot, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	gw.Token = strPtr(token)
	var err error
	if gw.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if gw.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &gw, nil
}

// --- Board groups ---

// CreateBoardGroup creates a grouping container for boards.
func (s *Store) CreateBoardGroup(ctx context.Context, group *BoardGroup) error {
	group.ID = uuid.NewString()
	group.CreatedAt = utcNow()
	group.UpdatedAt = group.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO board_groups (id, organization_id, name, slug, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.OrganizationID, group.Name, group.Slug, nullable(group.Description),
		formatTime(group.CreatedAt), formatTime(group.UpdatedAt))
	return translateErr(err)
}

// GetBoardGroup fetches a board group by id.
func (s *Store) GetBoardGroup(ctx context.Context, id string) (*BoardGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, name, slug, description, created_at, updated_at
		 FROM board_groups WHERE id = ?`, id)

	var g BoardGroup
	var desc sql.NullString
	var created, updated string
	if err := row.Scan(&g.ID, &g.OrganizationID, &g.Name, &g.Slug, &desc, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	g.Description = strPtr(desc)
	var err error
	if g.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListBoardGroups returns all board groups for an organization.
func (s *Store) ListBoardGroups(ctx context.Context, orgID string) ([]BoardGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, name, slug, description, created_at, updated_at
		 FROM board_groups WHERE organization_id = ? ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var groups []BoardGroup
	for rows.Next() {
		var g BoardGroup
		var desc sql.NullString
		var created, updated string
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.Name, &g.Slug, &desc, &created, &updated); err != nil {
			return nil, err
		}
		g.Description = strPtr(desc)
		if g.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if g.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Boards ---

const boardColumns = `id, organization_id, name, slug, gateway_id, board_group_id, board_type,
	objective, success_metrics, target_date, goal_confirmed, goal_source, created_at, updated_at`

// CreateBoard creates a board workspace.
func (s *Store) CreateBoard(ctx context.Context, board *Board) error {
	board.ID = uuid.NewString()
	if board.BoardType == "" {
		board.BoardType = "goal"
	}
	board.CreatedAt = utcNow()
	board.UpdatedAt = board.CreatedAt

	metrics, err := jsonColumn(board.SuccessMetrics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO boards (`+boardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		board.ID, board.OrganizationID, board.Name, board.Slug,
		nullable(board.GatewayID), nullable(board.BoardGroupID), board.BoardType,
		nullable(board.Objective), metrics, formatTimePtr(board.TargetDate),
		boolInt(board.GoalConfirmed), nullable(board.GoalSource),
		formatTime(board.CreatedAt), formatTime(board.UpdatedAt))
	return translateErr(err)
}

// GetBoard fetches a board by id.
func (s *Store) GetBoard(ctx context.Context, id string) (*Board, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = ?`, id)
	return scanBoard(row)
}

// ListBoards returns all boards for an organization.
func (s *Store) ListBoards(ctx context.Context, orgID string) ([]Board, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE organization_id = ? ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *b)
	}
	return boards, rows.Err()
}

func scanBoard(row rowScanner) (*Board, error) {
	var b Board
	var gatewayID, groupID, objective, metrics, targetDate, goalSource sql.NullString
	var confirmed int
	var created, updated string
	if err := row.Scan(&b.ID, &b.OrganizationID, &b.Name, &b.Slug, &gatewayID, &groupID,
		&b.BoardType, &objective, &metrics, &targetDate, &confirmed, &goalSource,
		&created, &updated); err != nil {
		return nil, translateErr(err)
	}
	b.GatewayID = strPtr(gatewayID)
	b.BoardGroupID = strPtr(groupID)
	b.Objective = strPtr(objective)
	b.GoalConfirmed = confirmed != 0
	b.GoalSource = strPtr(goalSource)
	if err := scanJSON(metrics, &b.SuccessMetrics); err != nil {
		return nil, err
	}
	var err error
	if b.TargetDate, err = parseTimePtr(targetDate); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &b, nil
}

// BoardPatch carries partial-update fields for a board. Nil fields are
// left untouched.
type BoardPatch struct {
	Name           *string
	Slug           *string
	GatewayID      *string
	BoardGroupID   *string
	BoardType      *string
	Objective      *string
	SuccessMetrics map[string]any
	TargetDate     *time.Time
	GoalConfirmed  *bool
	GoalSource     *string
}

// UpdateBoard applies a partial update and returns the fresh row.
func (s *Store) UpdateBoard(ctx context.Context, id string, patch BoardPatch) (*Board, error) {
	board, err := s.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		board.Name = *patch.Name
	}
	if patch.Slug != nil {
		board.Slug = *patch.Slug
	}
	if patch.GatewayID != nil {
		board.GatewayID = patch.GatewayID
	}
	if patch.BoardGroupID != nil {
		board.BoardGroupID = patch.BoardGroupID
	}
	if patch.BoardType != nil {
		board.BoardType = *patch.BoardType
	}
	if patch.Objective != nil {
		board.Objective = patch.Objective
	}
	if patch.SuccessMetrics != nil {
		board.SuccessMetrics = patch.SuccessMetrics
	}
	if patch.TargetDate != nil {
		board.TargetDate = patch.TargetDate
	}
	if patch.GoalConfirmed != nil {
		board.GoalConfirmed = *patch.GoalConfirmed
	}
	if patch.GoalSource != nil {
		board.GoalSource = patch.GoalSource
	}
	board.UpdatedAt = utcNow()

	metrics, err := jsonColumn(board.SuccessMetrics)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE boards SET name = ?, slug = ?, gateway_id = ?, board_group_id = ?, board_type = ?,
		 objective = ?, success_metrics = ?, target_date = ?, goal_confirmed = ?, goal_source = ?, updated_at = ?
		 WHERE id = ?`,
		board.Name, board.Slug, nullable(board.GatewayID), nullable(board.BoardGroupID), board.BoardType,
		nullable(board.Objective), metrics, formatTimePtr(board.TargetDate),
		boolInt(board.GoalConfirmed), nullable(board.GoalSource), formatTime(board.UpdatedAt), id)
	if err != nil {
		return nil, translateErr(err)
	}
	return board, nil
}

// --- Board access grants ---

// GrantBoardAccess upserts a member's read/write grant on a board.
func (s *Store) GrantBoardAccess(ctx context.Context, memberID, boardID string, canRead, canWrite bool) error {
	now := formatTime(utcNow())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organization_board_access (id, organization_member_id, board_id, can_read, can_write, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (organization_member_id, board_id)
		 DO UPDATE SET can_read = excluded.can_read, can_write = excluded.can_write, updated_at = excluded.updated_at`,
		uuid.NewString(), memberID, boardID, boolInt(canRead), boolInt(canWrite), now, now)
	return translateErr(err)
}

// BoardAccess reports a member's read/write grant on a board. Owners and
// admins implicitly hold write access to every board in the org.
func (s *Store) BoardAccess(ctx context.Context, member *OrganizationMember, boardID string) (canRead, canWrite bool, err error) {
	if member.Role == "owner" || member.Role == "admin" {
		return true, true, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT can_read, can_write FROM organization_board_access
		 WHERE organization_member_id = ? AND board_id = ?`, member.ID, boardID)
	var read, write int
	if err := row.Scan(&read, &write); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, false, nil
		}
		return false, false, err
	}
	return read != 0, write != 0, nil
}
