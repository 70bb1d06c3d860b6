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
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/gateway"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/leads"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

// onboardingGateway resolves the board's gateway and builds a session
// client from its record. Boards without a usable gateway cannot run
// onboarding.
func onboardingGateway(c *gin.Context, s *store.Store, board *store.Board) (*store.Gateway, *gateway.Client) {
	if board.GatewayID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "board has no gateway"})
		return nil, nil
	}
	gw, err := s.GetGateway(c.Request.Context(), *board.GatewayID)
	if err != nil {
		renderError(c, err)
		return nil, nil
	}
	if gw.URL == "" || gw.MainSessionKey == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "gateway is not configured for onboarding"})
		return nil, nil
	}
	var token string
	if gw.Token != nil {
		token = *gw.Token
	}
	return gw, gateway.NewClient(gateway.Config{BaseURL: gw.URL, Token: token}, 0)
}

// writableBoard loads a board in the member's organization and enforces
// write access.
func writableBoard(c *gin.Context, s *store.Store, member *store.OrganizationMember) *store.Board {
	board := boardInOrg(c, s, member, c.Param("boardId"))
	if board == nil {
		return nil
	}
	if _, canWrite, err := s.BoardAccess(c.Request.Context(), member, board.ID); err != nil {
		renderError(c, err)
		return nil
	} else if !canWrite {
		renderForbidden(c, "write access required")
		return nil
	}
	return board
}

// GetOnboarding returns the latest onboarding session for a board.
func GetOnboarding(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		sess, err := s.LatestOnboardingSession(c.Request.Context(), board.ID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// StartOnboarding opens an onboarding conversation on the gateway's main
// agent session. Idempotent while a session is still active.
func StartOnboarding(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := writableBoard(c, s, member)
		if board == nil {
			return
		}

		if existing, err := s.LatestOnboardingSession(c.Request.Context(), board.ID); err == nil &&
			existing.Status == store.OnboardingActive {
			c.JSON(http.StatusOK, existing)
			return
		}

		gw, client := onboardingGateway(c, s, board)
		if client == nil {
			return
		}

		prompt := fmt.Sprintf(
			"Board onboarding request for %q. Interview the user to pin down the "+
				"board goal and the lead agent's working style, then submit the "+
				"assembled draft through the agent onboarding endpoint.", board.Name)

		// User-initiated path: gateway failures surface as 502.
		ctx := c.Request.Context()
		if err := client.EnsureSession(ctx, gw.MainSessionKey, "Main Agent"); err != nil {
			renderError(c, err)
			return
		}
		if err := client.SendMessage(ctx, gw.MainSessionKey, prompt, false); err != nil {
			renderError(c, err)
			return
		}

		sess := &store.BoardOnboardingSession{
			BoardID:    board.ID,
			SessionKey: gw.MainSessionKey,
			Status:     store.OnboardingActive,
			Messages:   []store.Message{{Role: "user", Content: prompt}},
		}
		if err := s.CreateOnboardingSession(ctx, sess); err != nil {
			renderError(c, err)
			return
		}
		slog.Info("onboarding started", "board_id", board.ID,
			"session_id", sess.ID, "request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusCreated, sess)
	}
}

// AnswerOnboarding forwards a user answer to the gateway main agent and
// records it on the session transcript.
func AnswerOnboarding(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := writableBoard(c, s, member)
		if board == nil {
			return
		}
		var req datatypes.OnboardingAnswerRequest
		if !bindAndValidate(c, &req) {
			return
		}
		sess, err := s.LatestOnboardingSession(c.Request.Context(), board.ID)
		if err != nil {
			renderError(c, err)
			return
		}

		_, client := onboardingGateway(c, s, board)
		if client == nil {
			return
		}
		ctx := c.Request.Context()
		if err := client.EnsureSession(ctx, sess.SessionKey, "Main Agent"); err != nil {
			renderError(c, err)
			return
		}
		if err := client.SendMessage(ctx, sess.SessionKey, req.Content, false); err != nil {
			renderError(c, err)
			return
		}

		updated, err := s.AppendOnboardingMessage(ctx, sess.ID,
			store.Message{Role: "user", Content: req.Content}, nil)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// CompleteOnboarding stores the draft goal assembled by the gateway main
// agent and moves the session to completed. Agent-authenticated; only a
// gateway-level agent (one not pinned to a board) may submit.
func CompleteOnboarding(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent := middleware.CurrentAgent(c)
		if agent == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if agent.BoardID != nil {
			renderForbidden(c, "board agents cannot submit onboarding drafts")
			return
		}

		var req datatypes.OnboardingCompleteRequest
		if !bindAndValidate(c, &req) {
			return
		}
		sess, err := s.LatestOnboardingSession(c.Request.Context(), c.Param("boardId"))
		if err != nil {
			renderError(c, err)
			return
		}

		draft := &store.Draft{
			Objective:      req.Objective,
			SuccessMetrics: req.SuccessMetrics,
			TargetDate:     req.TargetDate,
		}
		content := req.Summary
		if content == "" {
			content = fmt.Sprintf("draft goal: %s", req.Objective)
		}
		if _, err := s.AppendOnboardingMessage(c.Request.Context(), sess.ID,
			store.Message{Role: "assistant", Content: content}, draft); err != nil {
			renderError(c, err)
			return
		}
		updated, err := s.AdvanceOnboardingStatus(c.Request.Context(), sess.ID, store.OnboardingCompleted)
		if err != nil {
			renderError(c, err)
			return
		}
		slog.Info("onboarding draft submitted", "board_id", sess.BoardID,
			"session_id", sess.ID, "agent_id", agent.ID,
			"request_id", middleware.GetRequestID(c))
		c.JSON(http.StatusOK, updated)
	}
}

// ConfirmOnboarding accepts the draft goal, copies it onto the board, and
// provisions the board lead agent. Lead provisioning is best-effort; the
// confirmation itself never depends on the gateway being reachable.
func ConfirmOnboarding(s *store.Store, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := writableBoard(c, s, member)
		if board == nil {
			return
		}
		sess, err := s.LatestOnboardingSession(c.Request.Context(), board.ID)
		if err != nil {
			renderError(c, err)
			return
		}

		_, confirmedBoard, err := s.ConfirmOnboardingSession(c.Request.Context(), sess.ID)
		if err != nil {
			renderError(c, err)
			return
		}

		var gw *store.Gateway
		if confirmedBoard.GatewayID != nil {
			if loaded, err := s.GetGateway(c.Request.Context(), *confirmedBoard.GatewayID); err == nil {
				gw = loaded
			}
		}
		deps := leads.Deps{Store: s, Logger: slog.Default()}
		if metrics != nil {
			deps.GatewayFailures = metrics.GatewayFailuresTotal
		}
		res, err := leads.Ensure(c.Request.Context(), deps, confirmedBoard, gw, leads.Options{})
		if err != nil {
			slog.Warn("lead provisioning after confirm failed",
				"board_id", confirmedBoard.ID, "error", err,
				"request_id", middleware.GetRequestID(c))
		} else if metrics != nil {
			outcome := "reconciled"
			if res.Created {
				outcome = "created"
			}
			metrics.LeadProvisionsTotal.WithLabelValues(outcome).Inc()
		}

		c.JSON(http.StatusOK, confirmedBoard)
	}
}
