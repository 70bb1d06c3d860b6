// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the Mission Control HTTP endpoints.
//
// Handlers are closures over their dependencies and follow one error
// contract: validation failures render 422 with per-field detail,
// missing rows 404, constraint conflicts 409 (after the transaction
// rolled back), authorization failures 403 before any statement runs,
// gateway trouble on user-initiated calls 502, and everything else 500
// with the request id for correlation.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/gateway"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "missioncontrol"})
}

// renderError maps an error onto the service-wide taxonomy.
func renderError(c *gin.Context, err error) {
	if ve := datatypes.AsValidationError(err); ve != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}

	var gwErr *gateway.GatewayError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway request failed"})
	default:
		slog.Error("request failed", "request_id", middleware.GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal error",
			"request_id": middleware.GetRequestID(c),
		})
	}
}

// renderForbidden is the 403 path; it must run before any mutation.
func renderForbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"error": msg})
}

// bindAndValidate decodes the JSON body into req and runs its
// validation, rendering the error response itself on failure.
func bindAndValidate(c *gin.Context, req interface{ Validate() error }) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "malformed request body"})
		return false
	}
	if err := req.Validate(); err != nil {
		renderError(c, err)
		return false
	}
	return true
}

// requireMember resolves the caller's active-organization membership or
// renders 403.
func requireMember(c *gin.Context) *store.OrganizationMember {
	member := middleware.CurrentMember(c)
	if member == nil {
		renderForbidden(c, "no active organization")
		return nil
	}
	return member
}

// boardInOrg loads a board and confirms it belongs to the member's
// organization; renders the error itself on failure.
func boardInOrg(c *gin.Context, s *store.Store, member *store.OrganizationMember, boardID string) *store.Board {
	board, err := s.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		renderError(c, err)
		return nil
	}
	if board.OrganizationID != member.OrganizationID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil
	}
	return board
}
