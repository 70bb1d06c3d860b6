// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gateway is the HTTP client for OpenClaw gateways: the external
// endpoints that host agent sessions. All calls are bounded by the
// client timeout and the caller's context; every failure surfaces as
// *GatewayError so callers can treat gateway trouble as one condition.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// GatewayError wraps any failure talking to a gateway: connection
// errors, non-2xx statuses, undecodable bodies.
type GatewayError struct {
	Op     string
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Config identifies one gateway endpoint.
type Config struct {
	BaseURL string
	Token   string
}

// Client talks to a single OpenClaw gateway.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient builds a gateway client. A zero timeout gets the default.
func NewClient(config Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
	}
}

type ensureSessionRequest struct {
	SessionKey string `json:"session_key"`
	Label      string `json:"label,omitempty"`
}

type sendMessageRequest struct {
	SessionKey string `json:"session_key"`
	Message    string `json:"message"`
	Deliver    bool   `json:"deliver"`
}

// EnsureSession creates the session on the gateway if it does not exist.
// Idempotent on the gateway side.
func (c *Client) EnsureSession(ctx context.Context, sessionKey, label string) error {
	return c.post(ctx, "ensure_session", "/api/sessions/ensure", ensureSessionRequest{
		SessionKey: sessionKey,
		Label:      label,
	})
}

// SendMessage delivers text into a session. With deliver=false the
// gateway queues the message without delivering it to the agent.
func (c *Client) SendMessage(ctx context.Context, sessionKey, message string, deliver bool) error {
	return c.post(ctx, "send_message", "/api/sessions/message", sendMessageRequest{
		SessionKey: sessionKey,
		Message:    message,
		Deliver:    deliver,
	})
}

func (c *Client) post(ctx context.Context, op, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &GatewayError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return &GatewayError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep a snippet of the body for the log line; gateways return
		// plain-text or JSON error messages.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &GatewayError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		}
	}
	return nil
}
