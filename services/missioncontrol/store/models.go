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

import "time"

// Organization is the top-level tenant record.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an application account resolved from the identity provider.
// Subject is the identity provider's stable subject claim.
type User struct {
	ID                   string  `json:"id"`
	Subject              string  `json:"subject"`
	Email                *string `json:"email,omitempty"`
	Name                 *string `json:"name,omitempty"`
	PreferredName        *string `json:"preferred_name,omitempty"`
	Timezone             *string `json:"timezone,omitempty"`
	IsSuperAdmin         bool    `json:"is_super_admin"`
	ActiveOrganizationID *string `json:"active_organization_id,omitempty"`
}

// OrganizationMember links a user to an organization with a role.
// Roles: "owner", "admin", "member".
type OrganizationMember struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrganizationInvite is an email-based invitation into an organization.
type OrganizationInvite struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organization_id"`
	InvitedEmail     string     `json:"invited_email"`
	Token            string     `json:"token"`
	Role             string     `json:"role"`
	AllBoardsRead    bool       `json:"all_boards_read"`
	AllBoardsWrite   bool       `json:"all_boards_write"`
	CreatedByUserID  *string    `json:"created_by_user_id,omitempty"`
	AcceptedByUserID *string    `json:"accepted_by_user_id,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Gateway is an external orchestration endpoint hosting agent sessions.
type Gateway struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	Token          *string   `json:"-"`
	MainSessionKey string    `json:"main_session_key"`
	WorkspaceRoot  string    `json:"workspace_root"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BoardGroup groups boards inside an organization.
type BoardGroup struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    *string   `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Board is a workspace of tasks scoped to one organization.
type Board struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	GatewayID      *string        `json:"gateway_id,omitempty"`
	BoardGroupID   *string        `json:"board_group_id,omitempty"`
	BoardType      string         `json:"board_type"`
	Objective      *string        `json:"objective,omitempty"`
	SuccessMetrics map[string]any `json:"success_metrics,omitempty"`
	TargetDate     *time.Time     `json:"target_date,omitempty"`
	GoalConfirmed  bool           `json:"goal_confirmed"`
	GoalSource     *string        `json:"goal_source,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Agent is an autonomous actor assigned to a board. AgentTokenHash holds
// the PBKDF2 digest record only; raw tokens are never persisted.
// PendingSync marks agents whose remote provisioning has not completed
// and will be retried by the reconciliation pass.
type Agent struct {
	ID                string            `json:"id"`
	BoardID           *string           `json:"board_id,omitempty"`
	Name              string            `json:"name"`
	Status            string            `json:"status"`
	OpenClawSessionID *string           `json:"openclaw_session_id,omitempty"`
	AgentTokenHash    *string           `json:"-"`
	HeartbeatConfig   map[string]any    `json:"heartbeat_config,omitempty"`
	IdentityProfile   map[string]string `json:"identity_profile,omitempty"`
	IsBoardLead       bool              `json:"is_board_lead"`
	PendingSync       bool              `json:"pending_sync"`
	LastSeenAt        *time.Time        `json:"last_seen_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Task is a board-scoped work item.
type Task struct {
	ID              string     `json:"id"`
	BoardID         *string    `json:"board_id,omitempty"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	CreatedByUserID *string    `json:"created_by_user_id,omitempty"`
	AssignedAgentID *string    `json:"assigned_agent_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TaskDependency is a directed edge between two tasks on a board.
type TaskDependency struct {
	ID              string    `json:"id"`
	BoardID         string    `json:"board_id"`
	TaskID          string    `json:"task_id"`
	DependsOnTaskID string    `json:"depends_on_task_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TaskFingerprint is a content hash used to deduplicate board tasks.
type TaskFingerprint struct {
	ID              string    `json:"id"`
	BoardID         string    `json:"board_id"`
	FingerprintHash string    `json:"fingerprint_hash"`
	TaskID          string    `json:"task_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Approval records a gated agent action awaiting a decision.
type Approval struct {
	ID         string     `json:"id"`
	BoardID    string     `json:"board_id"`
	TaskID     *string    `json:"task_id,omitempty"`
	AgentID    *string    `json:"agent_id,omitempty"`
	ActionType string     `json:"action_type"`
	Payload    *string    `json:"payload,omitempty"`
	Confidence int        `json:"confidence"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ActivityEvent is a discrete audit record tied to tasks and agents.
type ActivityEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Message   *string   `json:"message,omitempty"`
	AgentID   *string   `json:"agent_id,omitempty"`
	TaskID    *string   `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardMemory is a persisted memory item attached to a board.
type BoardMemory struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	IsChat    bool      `json:"is_chat"`
	Source    *string   `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardGroupMemory is a persisted memory item attached to a board group.
type BoardGroupMemory struct {
	ID           string    `json:"id"`
	BoardGroupID string    `json:"board_group_id"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags,omitempty"`
	IsChat       bool      `json:"is_chat"`
	Source       *string   `json:"source,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Onboarding session statuses. Transitions are strictly monotonic:
// active -> completed -> confirmed.
const (
	OnboardingActive    = "active"
	OnboardingCompleted = "completed"
	OnboardingConfirmed = "confirmed"
)

// BoardOnboardingSession holds the guided-setup conversation and draft
// goal for a board.
type BoardOnboardingSession struct {
	ID         string    `json:"id"`
	BoardID    string    `json:"board_id"`
	SessionKey string    `json:"session_key"`
	Status     string    `json:"status"`
	Messages   []Message `json:"messages,omitempty"`
	DraftGoal  *Draft    `json:"draft_goal,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Message is a single onboarding conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Draft is the goal proposal assembled during onboarding. Confirming the
// session copies it onto the board.
type Draft struct {
	Objective      string         `json:"objective"`
	SuccessMetrics map[string]any `json:"success_metrics,omitempty"`
	TargetDate     *time.Time     `json:"target_date,omitempty"`
}
