// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

// CreateOrganization creates an organization, makes the caller its
// owner, and activates it for them.
func CreateOrganization(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)

		var req datatypes.CreateOrganizationRequest
		if !bindAndValidate(c, &req) {
			return
		}

		org, err := s.CreateOrganization(c.Request.Context(), req.Name)
		if err != nil {
			renderError(c, err)
			return
		}
		if _, err := s.EnsureMember(c.Request.Context(), org.ID, user.ID, "owner"); err != nil {
			renderError(c, err)
			return
		}
		if err := s.SetActiveOrganization(c.Request.Context(), user.ID, org.ID); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, org)
	}
}

// GetOrganization returns the caller's active organization.
func GetOrganization(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		org, err := s.GetOrganization(c.Request.Context(), member.OrganizationID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, org)
	}
}

// DeleteOrganization removes the caller's active organization and every
// dependent row. Owner only; the role check runs before any delete
// statement is issued.
func DeleteOrganization(s *store.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		if member.Role != "owner" {
			renderForbidden(c, "only the organization owner may delete it")
			return
		}

		slog.Info("deleting organization", "org_id", member.OrganizationID,
			"request_id", middleware.GetRequestID(c))
		if err := s.DeleteOrganizationCascade(c.Request.Context(), member.OrganizationID); err != nil {
			renderError(c, err)
			return
		}
		if metrics != nil {
			metrics.CascadeDeletesTotal.WithLabelValues("organization").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "organization_id": member.OrganizationID})
	}
}

// ListMembers lists the active organization's memberships.
func ListMembers(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		members, err := s.ListMembers(c.Request.Context(), member.OrganizationID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

// CreateInvite issues an email invitation into the active organization.
// Admins and owners only.
func CreateInvite(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		if member.Role != "owner" && member.Role != "admin" {
			renderForbidden(c, "only owners and admins may invite")
			return
		}

		var req datatypes.CreateInviteRequest
		if !bindAndValidate(c, &req) {
			return
		}
		role := req.Role
		if role == "" {
			role = "member"
		}
		user := middleware.CurrentUser(c)
		invite := &store.OrganizationInvite{
			OrganizationID:  member.OrganizationID,
			InvitedEmail:    req.Email,
			Token:           uuid.NewString(),
			Role:            role,
			AllBoardsRead:   req.AllBoardsRead,
			AllBoardsWrite:  req.AllBoardsWrite,
			CreatedByUserID: &user.ID,
		}
		if err := s.CreateInvite(c.Request.Context(), invite); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invite)
	}
}

// ListInvites lists the active organization's invitations.
func ListInvites(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		invites, err := s.ListInvites(c.Request.Context(), member.OrganizationID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invites": invites})
	}
}
