// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOnboarding(t *testing.T, s *Store) (*Board, *BoardOnboardingSession) {
	t.Helper()
	ctx := context.Background()

	board := seedBoard(t, s)
	sess := &BoardOnboardingSession{BoardID: board.ID, SessionKey: "onboarding:" + board.ID}
	require.NoError(t, s.CreateOnboardingSession(ctx, sess))
	require.Equal(t, OnboardingActive, sess.Status)
	return board, sess
}

func TestOnboardingMessageAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, sess := seedOnboarding(t, s)

	updated, err := s.AppendOnboardingMessage(ctx, sess.ID,
		Message{Role: "user", Content: "We want to launch by Q3"}, nil)
	require.NoError(t, err)
	require.Len(t, updated.Messages, 1)

	draft := &Draft{Objective: "Launch by Q3", SuccessMetrics: map[string]any{"launched": true}}
	updated, err = s.AppendOnboardingMessage(ctx, sess.ID,
		Message{Role: "assistant", Content: "Here is a draft goal."}, draft)
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	require.NotNil(t, updated.DraftGoal)
	assert.Equal(t, "Launch by Q3", updated.DraftGoal.Objective)
}

func TestOnboardingStatusIsMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, sess := seedOnboarding(t, s)

	// Forward is allowed.
	_, err := s.AdvanceOnboardingStatus(ctx, sess.ID, OnboardingCompleted)
	require.NoError(t, err)

	// Backward and repeated transitions conflict.
	_, err = s.AdvanceOnboardingStatus(ctx, sess.ID, OnboardingActive)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.AdvanceOnboardingStatus(ctx, sess.ID, OnboardingCompleted)
	assert.ErrorIs(t, err, ErrConflict)

	// Completed sessions no longer accept messages.
	_, err = s.AppendOnboardingMessage(ctx, sess.ID, Message{Role: "user", Content: "late"}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.AdvanceOnboardingStatus(ctx, sess.ID, "bogus")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirmCopiesDraftOntoBoard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board, sess := seedOnboarding(t, s)

	draft := &Draft{Objective: "Ship v1", SuccessMetrics: map[string]any{"users": float64(50)}}
	_, err := s.AppendOnboardingMessage(ctx, sess.ID, Message{Role: "assistant", Content: "draft"}, draft)
	require.NoError(t, err)
	_, err = s.AdvanceOnboardingStatus(ctx, sess.ID, OnboardingCompleted)
	require.NoError(t, err)

	confirmed, updatedBoard, err := s.ConfirmOnboardingSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, OnboardingConfirmed, confirmed.Status)
	require.NotNil(t, updatedBoard.Objective)
	assert.Equal(t, "Ship v1", *updatedBoard.Objective)
	assert.True(t, updatedBoard.GoalConfirmed)
	require.NotNil(t, updatedBoard.GoalSource)
	assert.Equal(t, "onboarding", *updatedBoard.GoalSource)
	assert.Equal(t, board.ID, updatedBoard.ID)

	// Confirming twice conflicts.
	_, _, err = s.ConfirmOnboardingSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirmWithoutDraftConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, sess := seedOnboarding(t, s)

	_, err := s.AdvanceOnboardingStatus(ctx, sess.ID, OnboardingCompleted)
	require.NoError(t, err)

	_, _, err = s.ConfirmOnboardingSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirmFromActiveConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, sess := seedOnboarding(t, s)

	_, _, err := s.ConfirmOnboardingSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLatestOnboardingSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	board, first := seedOnboarding(t, s)

	_, err := s.LatestOnboardingSession(ctx, "missing-board")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.LatestOnboardingSession(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}
