// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSessionSendsTokenAndPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, 0)
	err := c.EnsureSession(context.Background(), "agent:lead-b1:main", "Lead Agent")
	require.NoError(t, err)

	assert.Equal(t, "/api/sessions/ensure", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "agent:lead-b1:main", gotBody["session_key"])
	assert.Equal(t, "Lead Agent", gotBody["label"])
}

func TestSendMessageCarriesDeliverFlag(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, 0)
	err := c.SendMessage(context.Background(), "agent:lead-b1:main", "hello", true)
	require.NoError(t, err)

	assert.Equal(t, "hello", gotBody["message"])
	assert.Equal(t, true, gotBody["deliver"])
}

func TestNon2xxBecomesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session store unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, 0)
	err := c.EnsureSession(context.Background(), "key", "")
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadGateway, gwErr.Status)
	assert.Equal(t, "ensure_session", gwErr.Op)
	assert.Contains(t, gwErr.Error(), "session store unavailable")
}

func TestConnectionFailureBecomesGatewayError(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, time.Second)
	err := c.SendMessage(context.Background(), "key", "msg", false)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Zero(t, gwErr.Status)
}
