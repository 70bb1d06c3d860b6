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

	"github.com/AleutianAI/MissionControl/pkg/durations"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

func ListBoardAgents(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		agents, err := s.ListBoardAgents(c.Request.Context(), board.ID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agents": agents})
	}
}

func GetAgent(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		agent, err := s.GetAgent(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			renderError(c, err)
			return
		}
		if agent.BoardID == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if boardInOrg(c, s, member, *agent.BoardID) == nil {
			return
		}
		c.JSON(http.StatusOK, agent)
	}
}

// Heartbeat is the agent-authenticated liveness endpoint. The agent may
// report a status change and propose a new heartbeat schedule; the
// schedule string is validated with pkg/durations before it is stored.
func Heartbeat(s *store.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent := middleware.CurrentAgent(c)
		if agent == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "agent credentials required"})
			return
		}
		// The path id must match the authenticated agent.
		if c.Param("agentId") != agent.ID {
			renderForbidden(c, "token does not match agent")
			return
		}

		var req datatypes.HeartbeatRequest
		if c.Request.ContentLength > 0 {
			if !bindAndValidate(c, &req) {
				return
			}
		}

		if req.Every != "" {
			normalized, err := durations.NormalizeEvery(req.Every)
			if err == nil {
				_, err = durations.ParseEveryToSeconds(normalized)
			}
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error":  "validation failed",
					"fields": []datatypes.FieldError{{Field: "every", Message: err.Error()}},
				})
				return
			}
			if agent.HeartbeatConfig == nil {
				agent.HeartbeatConfig = map[string]any{}
			}
			agent.HeartbeatConfig["every"] = normalized
			if err := s.UpdateAgent(c.Request.Context(), agent); err != nil {
				renderError(c, err)
				return
			}
		}

		updated, err := s.TouchAgentHeartbeat(c.Request.Context(), agent.ID, req.Status)
		if err != nil {
			renderError(c, err)
			return
		}
		if metrics != nil {
			metrics.AgentHeartbeatsTotal.WithLabelValues(updated.Status).Inc()
		}
		c.JSON(http.StatusOK, gin.H{"agent": updated})
	}
}
