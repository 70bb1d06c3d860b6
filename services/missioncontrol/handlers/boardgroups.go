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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

func groupInOrg(c *gin.Context, s *store.Store, member *store.OrganizationMember, id string) *store.BoardGroup {
	group, err := s.GetBoardGroup(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return nil
	}
	if group.OrganizationID != member.OrganizationID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil
	}
	return group
}

func CreateBoardGroup(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		var req datatypes.CreateBoardGroupRequest
		if !bindAndValidate(c, &req) {
			return
		}
		group := &store.BoardGroup{
			OrganizationID: member.OrganizationID,
			Name:           req.Name,
			Slug:           req.Slug,
			Description:    req.Description,
		}
		if err := s.CreateBoardGroup(c.Request.Context(), group); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, group)
	}
}

func ListBoardGroups(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		groups, err := s.ListBoardGroups(c.Request.Context(), member.OrganizationID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"board_groups": groups})
	}
}

func GetBoardGroup(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		group := groupInOrg(c, s, member, c.Param("groupId"))
		if group == nil {
			return
		}
		c.JSON(http.StatusOK, group)
	}
}

// DeleteBoardGroup cascades: every board under the group goes through
// the full board cascade before the group row is removed.
func DeleteBoardGroup(s *store.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		if member.Role != "owner" && member.Role != "admin" {
			renderForbidden(c, "only owners and admins may delete board groups")
			return
		}
		group := groupInOrg(c, s, member, c.Param("groupId"))
		if group == nil {
			return
		}
		if err := s.DeleteBoardGroupCascade(c.Request.Context(), group.ID); err != nil {
			renderError(c, err)
			return
		}
		if metrics != nil {
			metrics.CascadeDeletesTotal.WithLabelValues("board_group").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "board_group_id": group.ID})
	}
}
