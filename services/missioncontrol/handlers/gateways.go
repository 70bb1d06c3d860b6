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
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

// gatewayInOrg loads a gateway scoped to the member's organization.
func gatewayInOrg(c *gin.Context, s *store.Store, member *store.OrganizationMember, id string) *store.Gateway {
	gw, err := s.GetGateway(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return nil
	}
	if gw.OrganizationID != member.OrganizationID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil
	}
	return gw
}

func CreateGateway(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		var req datatypes.CreateGatewayRequest
		if !bindAndValidate(c, &req) {
			return
		}
		gw := &store.Gateway{
			OrganizationID: member.OrganizationID,
			Name:           req.Name,
			URL:            req.URL,
			Token:          req.Token,
			MainSessionKey: req.MainSessionKey,
			WorkspaceRoot:  req.WorkspaceRoot,
		}
		if err := s.CreateGateway(c.Request.Context(), gw); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gw)
	}
}

func ListGateways(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		gateways, err := s.ListGateways(c.Request.Context(), member.OrganizationID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"gateways": gateways})
	}
}

func GetGateway(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		gw := gatewayInOrg(c, s, member, c.Param("gatewayId"))
		if gw == nil {
			return
		}
		c.JSON(http.StatusOK, gw)
	}
}

func UpdateGateway(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		gw := gatewayInOrg(c, s, member, c.Param("gatewayId"))
		if gw == nil {
			return
		}

		var req datatypes.UpdateGatewayRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if req.Name != nil {
			gw.Name = *req.Name
		}
		if req.URL != nil {
			gw.URL = *req.URL
		}
		if req.Token != nil {
			gw.Token = req.Token
		}
		if req.MainSessionKey != nil {
			gw.MainSessionKey = *req.MainSessionKey
		}
		if req.WorkspaceRoot != nil {
			gw.WorkspaceRoot = *req.WorkspaceRoot
		}
		if err := s.UpdateGateway(c.Request.Context(), gw); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gw)
	}
}

// DeleteGateway removes a gateway. Boards still pointing at it cause a
// foreign-key conflict, surfaced as 409.
func DeleteGateway(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		gw := gatewayInOrg(c, s, member, c.Param("gatewayId"))
		if gw == nil {
			return
		}
		if err := s.DeleteGateway(c.Request.Context(), gw.ID); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "gateway_id": gw.ID})
	}
}
