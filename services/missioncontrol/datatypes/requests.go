// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response payloads for the
// Mission Control HTTP surface, along with their validation.
//
// Validation runs after JSON binding via each type's Validate method.
// Tag failures and cross-field failures both surface as
// *ValidationError so handlers can render uniform 422 payloads.
package datatypes

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for request payloads.
var validate = validator.New()

// OptionalString distinguishes an absent JSON field from an explicit
// null. Present is true whenever the key appeared in the payload.
type OptionalString struct {
	Present bool
	Null    bool
	Value   string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(data, []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// --- Organizations ---

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

func (r *CreateOrganizationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	return nil
}

type CreateInviteRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Role           string `json:"role" validate:"omitempty,oneof=owner admin member"`
	AllBoardsRead  bool   `json:"all_boards_read"`
	AllBoardsWrite bool   `json:"all_boards_write"`
}

func (r *CreateInviteRequest) Validate() error {
	return validate.Struct(r)
}

// --- Gateways ---

type CreateGatewayRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=200"`
	URL            string  `json:"url" validate:"required,url"`
	Token          *string `json:"token,omitempty"`
	MainSessionKey string  `json:"main_session_key" validate:"required"`
	WorkspaceRoot  string  `json:"workspace_root" validate:"required"`
}

func (r *CreateGatewayRequest) Validate() error {
	return validate.Struct(r)
}

type UpdateGatewayRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	URL            *string `json:"url,omitempty" validate:"omitempty,url"`
	Token          *string `json:"token,omitempty"`
	MainSessionKey *string `json:"main_session_key,omitempty"`
	WorkspaceRoot  *string `json:"workspace_root,omitempty"`
}

func (r *UpdateGatewayRequest) Validate() error {
	return validate.Struct(r)
}

// --- Board groups ---

type CreateBoardGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Slug        string  `json:"slug" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty"`
}

func (r *CreateBoardGroupRequest) Validate() error {
	return validate.Struct(r)
}

// --- Boards ---

type CreateBoardRequest struct {
	Name           string         `json:"name" validate:"required,min=1,max=200"`
	Slug           string         `json:"slug" validate:"required,min=1,max=100"`
	GatewayID      *string        `json:"gateway_id,omitempty"`
	BoardGroupID   *string        `json:"board_group_id,omitempty"`
	BoardType      string         `json:"board_type" validate:"omitempty,oneof=goal ops"`
	Objective      *string        `json:"objective,omitempty"`
	SuccessMetrics map[string]any `json:"success_metrics,omitempty"`
	TargetDate     *time.Time     `json:"target_date,omitempty"`
	GoalConfirmed  bool           `json:"goal_confirmed"`
	GoalSource     *string        `json:"goal_source,omitempty"`
}

// Validate applies tag validation plus the goal cross-field rule: a
// confirmed goal board must carry both an objective and success
// metrics, and the error names every missing field.
func (r *CreateBoardRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	boardType := r.BoardType
	if boardType == "" {
		boardType = "goal"
	}
	if boardType == "goal" && r.GoalConfirmed {
		ve := &ValidationError{}
		if r.Objective == nil || *r.Objective == "" {
			ve.Fields = append(ve.Fields, FieldError{
				Field:   "objective",
				Message: "is required when goal_confirmed is true",
			})
		}
		if len(r.SuccessMetrics) == 0 {
			ve.Fields = append(ve.Fields, FieldError{
				Field:   "success_metrics",
				Message: "is required when goal_confirmed is true",
			})
		}
		if len(ve.Fields) > 0 {
			return ve
		}
	}
	return nil
}

type UpdateBoardRequest struct {
	Name           *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug           *string        `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	GatewayID      OptionalString `json:"gateway_id"`
	BoardGroupID   *string        `json:"board_group_id,omitempty"`
	BoardType      *string        `json:"board_type,omitempty" validate:"omitempty,oneof=goal ops"`
	Objective      *string        `json:"objective,omitempty"`
	SuccessMetrics map[string]any `json:"success_metrics,omitempty"`
	TargetDate     *time.Time     `json:"target_date,omitempty"`
	GoalConfirmed  *bool          `json:"goal_confirmed,omitempty"`
	GoalSource     *string        `json:"goal_source,omitempty"`
}

// Validate rejects an explicit null gateway_id: boards are detached from
// gateways by deleting the board, not by nulling the link.
func (r *UpdateBoardRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.GatewayID.Present && r.GatewayID.Null {
		return &ValidationError{Fields: []FieldError{{
			Field:   "gateway_id",
			Message: "may not be null",
		}}}
	}
	return nil
}

// --- Lead agent ---

type EnsureLeadAgentRequest struct {
	AgentName       string            `json:"agent_name" validate:"omitempty,min=1,max=200"`
	IdentityProfile map[string]string `json:"identity_profile,omitempty"`
}

func (r *EnsureLeadAgentRequest) Validate() error {
	return validate.Struct(r)
}

// --- Agents ---

type HeartbeatRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=provisioning idle working blocked offline"`
	Every  string `json:"every,omitempty"`
}

func (r *HeartbeatRequest) Validate() error {
	return validate.Struct(r)
}

// --- Tasks ---

type CreateTaskRequest struct {
	Title           string     `json:"title" validate:"required,min=1,max=500"`
	Description     *string    `json:"description,omitempty"`
	Status          string     `json:"status" validate:"omitempty,oneof=inbox scheduled in_progress review done archived"`
	Priority        string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	AssignedAgentID *string    `json:"assigned_agent_id,omitempty"`
}

func (r *CreateTaskRequest) Validate() error {
	return validate.Struct(r)
}

type UpdateTaskRequest struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description     *string    `json:"description,omitempty"`
	Status          *string    `json:"status,omitempty" validate:"omitempty,oneof=inbox scheduled in_progress review done archived"`
	Priority        *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	AssignedAgentID *string    `json:"assigned_agent_id,omitempty"`
}

func (r *UpdateTaskRequest) Validate() error {
	return validate.Struct(r)
}

type CreateDependencyRequest struct {
	DependsOnTaskID string `json:"depends_on_task_id" validate:"required,uuid4"`
}

func (r *CreateDependencyRequest) Validate() error {
	return validate.Struct(r)
}

// --- Onboarding ---

type OnboardingAnswerRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

func (r *OnboardingAnswerRequest) Validate() error {
	return validate.Struct(r)
}

// OnboardingCompleteRequest is sent by the onboarding agent with the
// assembled draft goal.
type OnboardingCompleteRequest struct {
	Objective      string         `json:"objective" validate:"required,min=1"`
	SuccessMetrics map[string]any `json:"success_metrics" validate:"required,min=1"`
	TargetDate     *time.Time     `json:"target_date,omitempty"`
	Summary        string         `json:"summary,omitempty"`
}

func (r *OnboardingCompleteRequest) Validate() error {
	return validate.Struct(r)
}

// --- Memory ---

type CreateMemoryRequest struct {
	Content string   `json:"content" validate:"required,min=1"`
	Tags    []string `json:"tags,omitempty"`
	IsChat  bool     `json:"is_chat"`
	Source  *string  `json:"source,omitempty"`
}

func (r *CreateMemoryRequest) Validate() error {
	return validate.Struct(r)
}
