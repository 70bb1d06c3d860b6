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
	"time"

	"github.com/google/uuid"
)

const taskColumns = `id, board_id, title, description, status, priority, due_at,
	created_by_user_id, assigned_agent_id, created_at, updated_at`

// CreateTask inserts a task row.
func (s *Store) CreateTask(ctx context.Context, task *Task) error {
	task.ID = uuid.NewString()
	if task.Status == "" {
		task.Status = "inbox"
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	task.CreatedAt = utcNow()
	task.UpdatedAt = task.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, nullable(task.BoardID), task.Title, nullable(task.Description),
		task.Status, task.Priority, formatTimePtr(task.DueAt),
		nullable(task.CreatedByUserID), nullable(task.AssignedAgentID),
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
	return translateErr(err)
}

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListBoardTasks returns tasks on a board, optionally filtered by status.
func (s *Store) ListBoardTasks(ctx context.Context, boardID, status string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE board_id = ?`
	args := []any{boardID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// TaskPatch carries partial-update fields for a task. Nil fields are
// left untouched.
type TaskPatch struct {
	Title           *string
	Description     *string
	Status          *string
	Priority        *string
	DueAt           *time.Time
	AssignedAgentID *string
}

// UpdateTask applies a partial update and returns the fresh row.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueAt != nil {
		task.DueAt = patch.DueAt
	}
	if patch.AssignedAgentID != nil {
		task.AssignedAgentID = patch.AssignedAgentID
	}
	task.UpdatedAt = utcNow()

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_at = ?,
		 assigned_agent_id = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title, nullable(task.Description), task.Status, task.Priority,
		formatTimePtr(task.DueAt), nullable(task.AssignedAgentID), formatTime(task.UpdatedAt), id)
	if err != nil {
		return nil, translateErr(err)
	}
	return task, nil
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var boardID, desc, dueAt, createdBy, assigned sql.NullString
	var created, updated string
	if err := row.Scan(&t.ID, &boardID, &t.Title, &desc, &t.Status, &t.Priority,
		&dueAt, &createdBy, &assigned, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	t.BoardID = strPtr(boardID)
	t.Description = strPtr(desc)
	t.CreatedByUserID = strPtr(createdBy)
	t.AssignedAgentID = strPtr(assigned)
	var err error
	if t.DueAt, err = parseTimePtr(dueAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Task dependencies ---

// CreateTaskDependency adds a directed edge between two tasks. Duplicate
// edges and self-edges surface as ErrConflict via the table constraints.
func (s *Store) CreateTaskDependency(ctx context.Context, dep *TaskDependency) error {
	dep.ID = uuid.NewString()
	dep.CreatedAt = utcNow()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_dependencies (id, board_id, task_id, depends_on_task_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		dep.ID, dep.BoardID, dep.TaskID, dep.DependsOnTaskID, formatTime(dep.CreatedAt))
	return translateErr(err)
}

// ListTaskDependencies returns the edges on a board.
func (s *Store) ListTaskDependencies(ctx context.Context, boardID string) ([]TaskDependency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, task_id, depends_on_task_id, created_at
		 FROM task_dependencies WHERE board_id = ? ORDER BY created_at ASC`, boardID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var deps []TaskDependency
	for rows.Next() {
		var d TaskDependency
		var created string
		if err := rows.Scan(&d.ID, &d.BoardID, &d.TaskID, &d.DependsOnTaskID, &created); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// DeleteTaskDependency removes one edge.
func (s *Store) DeleteTaskDependency(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM task_dependencies WHERE id = ?`, id)
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

// --- Task fingerprints ---

// CreateTaskFingerprint records a dedup hash for a board task.
func (s *Store) CreateTaskFingerprint(ctx context.Context, fp *TaskFingerprint) error {
	fp.ID = uuid.NewString()
	fp.CreatedAt = utcNow()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_fingerprints (id, board_id, fingerprint_hash, task_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		fp.ID, fp.BoardID, fp.FingerprintHash, fp.TaskID, formatTime(fp.CreatedAt))
	return translateErr(err)
}

// FindTaskByFingerprint returns the task id previously recorded for a
// hash on a board, or ErrNotFound.
func (s *Store) FindTaskByFingerprint(ctx context.Context, boardID, hash string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_id FROM task_fingerprints WHERE board_id = ? AND fingerprint_hash = ? LIMIT 1`,
		boardID, hash)
	var taskID string
	if err := row.Scan(&taskID); err != nil {
		return "", translateErr(err)
	}
	return taskID, nil
}

// --- Activity events ---

// RecordActivity appends an audit event.
func (s *Store) RecordActivity(ctx context.Context, ev *ActivityEvent) error {
	ev.ID = uuid.NewString()
	ev.CreatedAt = utcNow()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_events (id, event_type, message, agent_id, task_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.EventType, nullable(ev.Message), nullable(ev.AgentID), nullable(ev.TaskID),
		formatTime(ev.CreatedAt))
	return translateErr(err)
}

// ListBoardActivity returns the newest audit events for a board's agents
// and tasks, capped at limit.
func (s *Store) ListBoardActivity(ctx context.Context, boardID string, limit int) ([]ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, message, agent_id, task_id, created_at FROM activity_events
		 WHERE agent_id IN (SELECT id FROM agents WHERE board_id = ?)
		    OR task_id IN (SELECT id FROM tasks WHERE board_id = ?)
		 ORDER BY created_at DESC LIMIT ?`, boardID, boardID, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var events []ActivityEvent
	for rows.Next() {
		var ev ActivityEvent
		var msg, agentID, taskID sql.NullString
		var created string
		if err := rows.Scan(&ev.ID, &ev.EventType, &msg, &agentID, &taskID, &created); err != nil {
			return nil, err
		}
		ev.Message = strPtr(msg)
		ev.AgentID = strPtr(agentID)
		ev.TaskID = strPtr(taskID)
		if ev.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- Board and group memory ---

// CreateBoardMemory appends a memory item to a board.
func (s *Store) CreateBoardMemory(ctx context.Context, mem *BoardMemory) error {
	mem.ID = uuid.NewString()
	mem.CreatedAt = utcNow()

	tags, err := jsonColumn(mem.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_memory (id, board_id, content, tags, is_chat, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mem.ID, mem.BoardID, mem.Content, tags, boolInt(mem.IsChat), nullable(mem.Source),
		formatTime(mem.CreatedAt))
	return translateErr(err)
}

// ListBoardMemory returns a board's memory items, newest first.
func (s *Store) ListBoardMemory(ctx context.Context, boardID string, limit int) ([]BoardMemory, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, content, tags, is_chat, source, created_at
		 FROM board_memory WHERE board_id = ? ORDER BY created_at DESC LIMIT ?`, boardID, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var items []BoardMemory
	for rows.Next() {
		var m BoardMemory
		var tags, source sql.NullString
		var isChat int
		var created string
		if err := rows.Scan(&m.ID, &m.BoardID, &m.Content, &tags, &isChat, &source, &created); err != nil {
			return nil, err
		}
		if err := scanJSON(tags, &m.Tags); err != nil {
			return nil, err
		}
		m.IsChat = isChat != 0
		m.Source = strPtr(source)
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// CreateBoardGroupMemory appends a memory item to a board group.
func (s *Store) CreateBoardGroupMemory(ctx context.Context, mem *BoardGroupMemory) error {
	mem.ID = uuid.NewString()
	mem.CreatedAt = utcNow()

	tags, err := jsonColumn(mem.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_group_memory (id, board_group_id, content, tags, is_chat, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mem.ID, mem.BoardGroupID, mem.Content, tags, boolInt(mem.IsChat), nullable(mem.Source),
		formatTime(mem.CreatedAt))
	return translateErr(err)
}

// ListBoardGroupMemory returns a group's memory items, newest first.
func (s *Store) ListBoardGroupMemory(ctx context.Context, groupID string, limit int) ([]BoardGroupMemory, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_group_id, content, tags, is_chat, source, created_at
		 FROM board_group_memory WHERE board_group_id = ? ORDER BY created_at DESC LIMIT ?`, groupID, limit)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var items []BoardGroupMemory
	for rows.Next() {
		var m BoardGroupMemory
		var tags, source sql.NullString
		var isChat int
		var created string
		if err := rows.Scan(&m.ID, &m.BoardGroupID, &m.Content, &tags, &isChat, &source, &created); err != nil {
			return nil, err
		}
		if err := scanJSON(tags, &m.Tags); err != nil {
			return nil, err
		}
		m.IsChat = isChat != 0
		m.Source = strPtr(source)
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
