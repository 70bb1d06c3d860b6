// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the Mission Control
// service.
//
// # Authentication Flow
//
// UserAuth extracts a bearer credential from the Authorization header,
// validates it with the configured IdentityProvider, resolves (or
// creates) the matching user row, and stores the user plus their active
// organization membership in the Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	UserAuth
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► provider.Validate(ctx, token)        → Identity
//	   │
//	   ├─► store.GetOrCreateUser(subject, ...)  → User row
//	   │
//	   └─► Store user + membership in context
//	           │
//	           ▼
//	       Handler (retrieves via CurrentUser / CurrentMember)
//
// Agent requests use AgentAuth instead: X-Agent-Id names the agent row
// and X-Agent-Token carries the raw credential, verified against the
// stored PBKDF2 digest record.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MissionControl/pkg/extensions"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/tokens"
)

const (
	userKey   = "missioncontrol_user"
	memberKey = "missioncontrol_member"
	agentKey  = "missioncontrol_agent"

	agentIDHeader    = "X-Agent-Id"
	agentTokenHeader = "X-Agent-Token"
)

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *store.User {
	if v, exists := c.Get(userKey); exists {
		if u, ok := v.(*store.User); ok {
			return u
		}
	}
	return nil
}

// CurrentMember returns the user's membership in their active
// organization, or nil when the user has no active organization.
func CurrentMember(c *gin.Context) *store.OrganizationMember {
	if v, exists := c.Get(memberKey); exists {
		if m, ok := v.(*store.OrganizationMember); ok {
			return m
		}
	}
	return nil
}

// CurrentAgent returns the token-authenticated agent, or nil.
func CurrentAgent(c *gin.Context) *store.Agent {
	if v, exists := c.Get(agentKey); exists {
		if a, ok := v.(*store.Agent); ok {
			return a
		}
	}
	return nil
}

// UserAuth authenticates human callers.
//
// The bearer credential is validated by the provider; the resulting
// subject claim keys a get-or-create of the user row, so first sign-in
// materializes the account. When the user has an active organization
// their membership row is resolved too. Identity failures abort with
// 401 before any handler runs.
func UserAuth(provider extensions.IdentityProvider, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		identity, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, extensions.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}

		var email, name *string
		if identity.Email != "" {
			email = &identity.Email
		}
		if identity.Name != "" {
			name = &identity.Name
		}
		user, _, err := s.GetOrCreateUser(c.Request.Context(), identity.Subject, email, name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
			return
		}
		c.Set(userKey, user)

		if user.ActiveOrganizationID != nil {
			member, err := s.GetMember(c.Request.Context(), *user.ActiveOrganizationID, user.ID)
			if err == nil {
				c.Set(memberKey, member)
			} else if !errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve membership"})
				return
			}
		}

		c.Next()
	}
}

// AgentAuth authenticates agent callers via X-Agent-Id + X-Agent-Token.
//
// The raw token is verified against the agent's stored digest record in
// constant time. A missing agent, an agent with no issued token, and a
// bad token all produce the same 401; callers cannot probe which agent
// ids exist.
func AgentAuth(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := strings.TrimSpace(c.GetHeader(agentIDHeader))
		rawToken := strings.TrimSpace(c.GetHeader(agentTokenHeader))
		if agentID == "" || rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "agent credentials required"})
			return
		}

		record, err := s.AgentTokenRecord(c.Request.Context(), agentID)
		if err != nil || !tokens.Verify(rawToken, record) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid agent credentials"})
			return
		}

		agent, err := s.GetAgent(c.Request.Context(), agentID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid agent credentials"})
			return
		}
		c.Set(agentKey, agent)
		c.Next()
	}
}

// extractBearerToken parses "Authorization: Bearer <token>", returning
// "" when the header is missing or malformed. The scheme is
// case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
