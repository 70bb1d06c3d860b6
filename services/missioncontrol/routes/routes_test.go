// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/MissionControl/pkg/extensions"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSetupRoutesRegistersCoreRoutes(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	router := gin.New()
	SetupRoutes(router, s, &extensions.NopIdentityProvider{}, nil, nil)

	coreRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/organizations"},
		{"GET", "/v1/organization"},
		{"DELETE", "/v1/organization"},
		{"POST", "/v1/gateways"},
		{"POST", "/v1/board-groups"},
		{"POST", "/v1/boards"},
		{"PATCH", "/v1/boards/:boardId"},
		{"POST", "/v1/boards/:boardId/lead-agent"},
		{"POST", "/v1/boards/:boardId/tasks"},
		{"GET", "/v1/boards/:boardId/activity"},
		{"POST", "/v1/boards/:boardId/onboarding/start"},
		{"POST", "/v1/boards/:boardId/onboarding/confirm"},
		{"PATCH", "/v1/tasks/:taskId"},
		{"POST", "/v1/tasks/:taskId/dependencies"},
		{"POST", "/v1/agent/agents/:agentId/heartbeat"},
		{"POST", "/v1/agent/boards/:boardId/onboarding/complete"},
	}

	registered := router.Routes()
	for _, expected := range coreRoutes {
		found := false
		for _, r := range registered {
			if r.Method == expected.method && r.Path == expected.path {
				found = true
				break
			}
		}
		assert.True(t, found, "expected route %s %s not found", expected.method, expected.path)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	router := gin.New()
	SetupRoutes(router, s, &extensions.NopIdentityProvider{}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
