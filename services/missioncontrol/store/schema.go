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
	"database/sql"
	"fmt"
)

// schemaStatements create every Mission Control table. Foreign keys are
// declared without ON DELETE actions: deletion order is owned by the
// cascade routines in cascade.go, not by the database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id                     TEXT PRIMARY KEY,
		subject                TEXT NOT NULL UNIQUE,
		email                  TEXT,
		name                   TEXT,
		preferred_name         TEXT,
		timezone               TEXT,
		is_super_admin         INTEGER NOT NULL DEFAULT 0,
		active_organization_id TEXT REFERENCES organizations(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_active_org ON users(active_organization_id)`,

	`CREATE TABLE IF NOT EXISTS organization_members (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		user_id         TEXT NOT NULL REFERENCES users(id),
		role            TEXT NOT NULL DEFAULT 'member',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE (organization_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS organization_invites (
		id                  TEXT PRIMARY KEY,
		organization_id     TEXT NOT NULL REFERENCES organizations(id),
		invited_email       TEXT NOT NULL,
		token               TEXT NOT NULL UNIQUE,
		role                TEXT NOT NULL DEFAULT 'member',
		all_boards_read     INTEGER NOT NULL DEFAULT 0,
		all_boards_write    INTEGER NOT NULL DEFAULT 0,
		created_by_user_id  TEXT REFERENCES users(id),
		accepted_by_user_id TEXT REFERENCES users(id),
		accepted_at         TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_org_invites_org ON organization_invites(organization_id)`,

	`CREATE TABLE IF NOT EXISTS gateways (
		id               TEXT PRIMARY KEY,
		organization_id  TEXT NOT NULL REFERENCES organizations(id),
		name             TEXT NOT NULL,
		url              TEXT NOT NULL,
		token            TEXT,
		main_session_key TEXT NOT NULL,
		workspace_root   TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gateways_org ON gateways(organization_id)`,

	`CREATE TABLE IF NOT EXISTS board_groups (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name            TEXT NOT NULL,
		slug            TEXT NOT NULL,
		description     TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_board_groups_org ON board_groups(organization_id)`,

	`CREATE TABLE IF NOT EXISTS boards (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name            TEXT NOT NULL,
		slug            TEXT NOT NULL,
		gateway_id      TEXT REFERENCES gateways(id),
		board_group_id  TEXT REFERENCES board_groups(id),
		board_type      TEXT NOT NULL DEFAULT 'goal',
		objective       TEXT,
		success_metrics TEXT,
		target_date     TEXT,
		goal_confirmed  INTEGER NOT NULL DEFAULT 0,
		goal_source     TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_org ON boards(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_group ON boards(board_group_id)`,

	`CREATE TABLE IF NOT EXISTS agents (
		id                  TEXT PRIMARY KEY,
		board_id            TEXT REFERENCES boards(id),
		name                TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'provisioning',
		openclaw_session_id TEXT,
		agent_token_hash    TEXT,
		heartbeat_config    TEXT,
		identity_profile    TEXT,
		is_board_lead       INTEGER NOT NULL DEFAULT 0,
		pending_sync        INTEGER NOT NULL DEFAULT 0,
		last_seen_at        TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_board ON agents(board_id)`,
	// Storage-level guard for the one-lead-per-board invariant. The
	// provisioning path also checks before insert; this index turns a
	// lost race into a clean conflict instead of a duplicate lead.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_agents_board_lead
		ON agents(board_id) WHERE is_board_lead = 1`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id                 TEXT PRIMARY KEY,
		board_id           TEXT REFERENCES boards(id),
		title              TEXT NOT NULL,
		description        TEXT,
		status             TEXT NOT NULL DEFAULT 'inbox',
		priority           TEXT NOT NULL DEFAULT 'medium',
		due_at             TEXT,
		created_by_user_id TEXT REFERENCES users(id),
		assigned_agent_id  TEXT REFERENCES agents(id),
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

	`CREATE TABLE IF NOT EXISTS task_dependencies (
		id                  TEXT PRIMARY KEY,
		board_id            TEXT NOT NULL REFERENCES boards(id),
		task_id             TEXT NOT NULL REFERENCES tasks(id),
		depends_on_task_id  TEXT NOT NULL REFERENCES tasks(id),
		created_at          TEXT NOT NULL,
		UNIQUE (task_id, depends_on_task_id),
		CHECK (task_id <> depends_on_task_id)
	)`,

	`CREATE TABLE IF NOT EXISTS task_fingerprints (
		id               TEXT PRIMARY KEY,
		board_id         TEXT NOT NULL REFERENCES boards(id),
		fingerprint_hash TEXT NOT NULL,
		task_id          TEXT NOT NULL REFERENCES tasks(id),
		created_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_fingerprints_board ON task_fingerprints(board_id)`,

	`CREATE TABLE IF NOT EXISTS approvals (
		id          TEXT PRIMARY KEY,
		board_id    TEXT NOT NULL REFERENCES boards(id),
		task_id     TEXT REFERENCES tasks(id),
		agent_id    TEXT REFERENCES agents(id),
		action_type TEXT NOT NULL,
		payload     TEXT,
		confidence  INTEGER NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TEXT NOT NULL,
		resolved_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_approvals_board ON approvals(board_id)`,

	`CREATE TABLE IF NOT EXISTS activity_events (
		id         TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		message    TEXT,
		agent_id   TEXT REFERENCES agents(id),
		task_id    TEXT REFERENCES tasks(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_events_agent ON activity_events(agent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_events_task ON activity_events(task_id)`,

	`CREATE TABLE IF NOT EXISTS board_memory (
		id         TEXT PRIMARY KEY,
		board_id   TEXT NOT NULL REFERENCES boards(id),
		content    TEXT NOT NULL,
		tags       TEXT,
		is_chat    INTEGER NOT NULL DEFAULT 0,
		source     TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_board_memory_board ON board_memory(board_id)`,

	`CREATE TABLE IF NOT EXISTS board_group_memory (
		id             TEXT PRIMARY KEY,
		board_group_id TEXT NOT NULL REFERENCES board_groups(id),
		content        TEXT NOT NULL,
		tags           TEXT,
		is_chat        INTEGER NOT NULL DEFAULT 0,
		source         TEXT,
		created_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS board_onboarding_sessions (
		id          TEXT PRIMARY KEY,
		board_id    TEXT NOT NULL REFERENCES boards(id),
		session_key TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active',
		messages    TEXT,
		draft_goal  TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_board_onboarding_board ON board_onboarding_sessions(board_id)`,

	`CREATE TABLE IF NOT EXISTS organization_board_access (
		id                     TEXT PRIMARY KEY,
		organization_member_id TEXT NOT NULL REFERENCES organization_members(id),
		board_id               TEXT NOT NULL REFERENCES boards(id),
		can_read               INTEGER NOT NULL DEFAULT 1,
		can_write              INTEGER NOT NULL DEFAULT 0,
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL,
		UNIQUE (organization_member_id, board_id)
	)`,

	`CREATE TABLE IF NOT EXISTS organization_invite_board_access (
		id                     TEXT PRIMARY KEY,
		organization_invite_id TEXT NOT NULL REFERENCES organization_invites(id),
		board_id               TEXT NOT NULL REFERENCES boards(id),
		can_read               INTEGER NOT NULL DEFAULT 1,
		can_write              INTEGER NOT NULL DEFAULT 0,
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL,
		UNIQUE (organization_invite_id, board_id)
	)`,
}

// createSchema creates all tables and indexes. Idempotent.
func createSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
