// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/MissionControl/pkg/extensions"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/tokens"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type rejectingProvider struct{}

func (rejectingProvider) Validate(_ context.Context, _ string) (*extensions.Identity, error) {
	return nil, extensions.ErrUnauthorized
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	// Generated when absent.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, w.Header().Get("X-Request-Id"), w.Body.String())

	// Honored when supplied.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "client-chosen-id")
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-chosen-id", w.Header().Get("X-Request-Id"))
}

func TestUserAuthCreatesUserOnFirstSeen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestStore(t)

	var seen *store.User
	r := gin.New()
	r.Use(UserAuth(&extensions.NopIdentityProvider{}, s))
	r.GET("/", func(c *gin.Context) {
		seen = CurrentUser(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "local|operator", seen.Subject)

	// The row persisted.
	got, err := s.GetUser(context.Background(), seen.ID)
	require.NoError(t, err)
	assert.Equal(t, seen.ID, got.ID)
}

func TestUserAuthResolvesActiveMembership(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	user, _, err := s.GetOrCreateUser(ctx, "local|operator", nil, nil)
	require.NoError(t, err)
	_, err = s.EnsureMember(ctx, org.ID, user.ID, "owner")
	require.NoError(t, err)
	require.NoError(t, s.SetActiveOrganization(ctx, user.ID, org.ID))

	var member *store.OrganizationMember
	r := gin.New()
	r.Use(UserAuth(&extensions.NopIdentityProvider{}, s))
	r.GET("/", func(c *gin.Context) {
		member = CurrentMember(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, member)
	assert.Equal(t, "owner", member.Role)
}

func TestUserAuthRejectsInvalidIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestStore(t)

	r := gin.New()
	r.Use(UserAuth(rejectingProvider{}, s))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAgentAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	board := &store.Board{OrganizationID: org.ID, Name: "b", Slug: "b"}
	require.NoError(t, s.CreateBoard(ctx, board))

	raw, err := tokens.Generate()
	require.NoError(t, err)
	hash, err := tokens.Hash(raw)
	require.NoError(t, err)
	agent := &store.Agent{BoardID: &board.ID, Name: "Lead", AgentTokenHash: &hash}
	require.NoError(t, s.CreateAgent(ctx, agent))

	var seen *store.Agent
	r := gin.New()
	r.Use(AgentAuth(s))
	r.POST("/", func(c *gin.Context) {
		seen = CurrentAgent(c)
		c.Status(http.StatusOK)
	})

	do := func(id, token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if id != "" {
			req.Header.Set("X-Agent-Id", id)
		}
		if token != "" {
			req.Header.Set("X-Agent-Token", token)
		}
		r.ServeHTTP(w, req)
		return w
	}

	// Valid credentials pass and expose the agent.
	w := do(agent.ID, raw)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, agent.ID, seen.ID)

	// Everything else is the same 401.
	assert.Equal(t, http.StatusUnauthorized, do("", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(agent.ID, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(agent.ID, "wrong-token").Code)
	assert.Equal(t, http.StatusUnauthorized, do("no-such-agent", raw).Code)
}
