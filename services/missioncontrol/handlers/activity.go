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
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ListBoardActivity returns the board's recent activity feed, newest
// first.
func ListBoardActivity(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		events, err := s.ListBoardActivity(c.Request.Context(), board.ID, queryLimit(c))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

func CreateBoardMemory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		var req datatypes.CreateMemoryRequest
		if !bindAndValidate(c, &req) {
			return
		}
		mem := &store.BoardMemory{
			BoardID: board.ID,
			Content: req.Content,
			Tags:    req.Tags,
			IsChat:  req.IsChat,
			Source:  req.Source,
		}
		if err := s.CreateBoardMemory(c.Request.Context(), mem); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, mem)
	}
}

func ListBoardMemory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		items, err := s.ListBoardMemory(c.Request.Context(), board.ID, queryLimit(c))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"memory": items})
	}
}

func CreateBoardGroupMemory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		group := groupInOrg(c, s, member, c.Param("groupId"))
		if group == nil {
			return
		}
		var req datatypes.CreateMemoryRequest
		if !bindAndValidate(c, &req) {
			return
		}
		mem := &store.BoardGroupMemory{
			BoardGroupID: group.ID,
			Content:      req.Content,
			Tags:         req.Tags,
			IsChat:       req.IsChat,
			Source:       req.Source,
		}
		if err := s.CreateBoardGroupMemory(c.Request.Context(), mem); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, mem)
	}
}

func ListBoardGroupMemory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		group := groupInOrg(c, s, member, c.Param("groupId"))
		if group == nil {
			return
		}
		items, err := s.ListBoardGroupMemory(c.Request.Context(), group.ID, queryLimit(c))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"memory": items})
	}
}
