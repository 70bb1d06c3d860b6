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

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/leads"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

func CreateBoard(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		var req datatypes.CreateBoardRequest
		if !bindAndValidate(c, &req) {
			return
		}
		board := &store.Board{
			OrganizationID: member.OrganizationID,
			Name:           req.Name,
			Slug:           req.Slug,
			GatewayID:      req.GatewayID,
			BoardGroupID:   req.BoardGroupID,
			BoardType:      req.BoardType,
			Objective:      req.Objective,
			SuccessMetrics: req.SuccessMetrics,
			TargetDate:     req.TargetDate,
			GoalConfirmed:  req.GoalConfirmed,
			GoalSource:     req.GoalSource,
		}
		if err := s.CreateBoard(c.Request.Context(), board); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, board)
	}
}

func ListBoards(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		boards, err := s.ListBoards(c.Request.Context(), member.OrganizationID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"boards": boards})
	}
}

func GetBoard(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		c.JSON(http.StatusOK, board)
	}
}

func UpdateBoard(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		if _, canWrite, err := s.BoardAccess(c.Request.Context(), member, board.ID); err != nil {
			renderError(c, err)
			return
		} else if !canWrite {
			renderForbidden(c, "write access required")
			return
		}

		var req datatypes.UpdateBoardRequest
		if !bindAndValidate(c, &req) {
			return
		}
		patch := store.BoardPatch{
			Name:           req.Name,
			Slug:           req.Slug,
			BoardGroupID:   req.BoardGroupID,
			BoardType:      req.BoardType,
			Objective:      req.Objective,
			SuccessMetrics: req.SuccessMetrics,
			TargetDate:     req.TargetDate,
			GoalConfirmed:  req.GoalConfirmed,
			GoalSource:     req.GoalSource,
		}
		if req.GatewayID.Present {
			patch.GatewayID = &req.GatewayID.Value
		}
		updated, err := s.UpdateBoard(c.Request.Context(), board.ID, patch)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteBoard cascades the board and its dependent rows. Requires write
// access; the check runs before any statement.
func DeleteBoard(s *store.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		if _, canWrite, err := s.BoardAccess(c.Request.Context(), member, board.ID); err != nil {
			renderError(c, err)
			return
		} else if !canWrite {
			renderForbidden(c, "write access required")
			return
		}

		if err := s.DeleteBoardCascade(c.Request.Context(), board.ID); err != nil {
			renderError(c, err)
			return
		}
		if metrics != nil {
			metrics.CascadeDeletesTotal.WithLabelValues("board").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "board_id": board.ID})
	}
}

// EnsureLeadAgent provisions (or reconciles) the board's lead agent.
// The response includes the raw token exactly once, on creation.
func EnsureLeadAgent(s *store.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}

		var req datatypes.EnsureLeadAgentRequest
		if c.Request.ContentLength > 0 {
			if !bindAndValidate(c, &req) {
				return
			}
		}

		var gw *store.Gateway
		if board.GatewayID != nil {
			var err error
			gw, err = s.GetGateway(c.Request.Context(), *board.GatewayID)
			if err != nil {
				renderError(c, err)
				return
			}
		}

		deps := leads.Deps{Store: s, Logger: slog.Default()}
		if metrics != nil {
			deps.GatewayFailures = metrics.GatewayFailuresTotal
		}
		res, err := leads.Ensure(c.Request.Context(), deps, board, gw, leads.Options{
			AgentName:       req.AgentName,
			IdentityProfile: req.IdentityProfile,
		})
		if err != nil {
			renderError(c, err)
			return
		}

		if metrics != nil {
			outcome := "reconciled"
			if res.Created {
				outcome = "created"
			}
			metrics.LeadProvisionsTotal.WithLabelValues(outcome).Inc()
		}

		body := gin.H{"agent": res.Agent, "created": res.Created}
		if res.Created {
			body["agent_token"] = res.RawToken
		}
		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		slog.Info("lead agent ensured", "board_id", board.ID,
			"agent_id", res.Agent.ID, "created", res.Created,
			"request_id", middleware.GetRequestID(c))
		c.JSON(status, body)
	}
}
