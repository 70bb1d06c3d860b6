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
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const onboardingColumns = `id, board_id, session_key, status, messages, draft_goal, created_at, updated_at`

// statusRank orders onboarding statuses. Transitions may only move to a
// strictly higher rank.
var statusRank = map[string]int{
	OnboardingActive:    0,
	OnboardingCompleted: 1,
	OnboardingConfirmed: 2,
}

// CreateOnboardingSession starts a guided-setup conversation for a board.
func (s *Store) CreateOnboardingSession(ctx context.Context, sess *BoardOnboardingSession) error {
	sess.ID = uuid.NewString()
	if sess.Status == "" {
		sess.Status = OnboardingActive
	}
	sess.CreatedAt = utcNow()
	sess.UpdatedAt = sess.CreatedAt

	messages, err := jsonColumn(sess.Messages)
	if err != nil {
		return err
	}
	draft, err := jsonColumn(sess.DraftGoal)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_onboarding_sessions (`+onboardingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.BoardID, sess.SessionKey, sess.Status, messages, draft,
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt))
	return translateErr(err)
}

// GetOnboardingSession fetches a session by id.
func (s *Store) GetOnboardingSession(ctx context.Context, id string) (*BoardOnboardingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+onboardingColumns+` FROM board_onboarding_sessions WHERE id = ?`, id)
	return scanOnboarding(row)
}

// LatestOnboardingSession returns the newest session for a board, or
// ErrNotFound when the board has never started onboarding.
func (s *Store) LatestOnboardingSession(ctx context.Context, boardID string) (*BoardOnboardingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+onboardingColumns+` FROM board_onboarding_sessions
		 WHERE board_id = ? ORDER BY created_at DESC LIMIT 1`, boardID)
	return scanOnboarding(row)
}

// AppendOnboardingMessage adds a conversation turn and optionally replaces
// the draft goal. Only active sessions accept messages.
func (s *Store) AppendOnboardingMessage(ctx context.Context, id string, msg Message, draft *Draft) (*BoardOnboardingSession, error) {
	sess, err := s.GetOnboardingSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != OnboardingActive {
		return nil, fmt.Errorf("session is %s: %w", sess.Status, ErrConflict)
	}
	sess.Messages = append(sess.Messages, msg)
	if draft != nil {
		sess.DraftGoal = draft
	}
	if err := s.saveOnboarding(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AdvanceOnboardingStatus moves a session forward. Backward and repeated
// transitions return ErrConflict.
func (s *Store) AdvanceOnboardingStatus(ctx context.Context, id, next string) (*BoardOnboardingSession, error) {
	nextRank, ok := statusRank[next]
	if !ok {
		return nil, fmt.Errorf("unknown onboarding status %q: %w", next, ErrConflict)
	}
	sess, err := s.GetOnboardingSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if statusRank[sess.Status] >= nextRank {
		return nil, fmt.Errorf("cannot move session from %s to %s: %w", sess.Status, next, ErrConflict)
	}
	sess.Status = next
	if err := s.saveOnboarding(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ConfirmOnboardingSession marks a completed session confirmed and copies
// its draft goal onto the board in the same transaction. A session with no
// draft cannot be confirmed.
func (s *Store) ConfirmOnboardingSession(ctx context.Context, id string) (*BoardOnboardingSession, *Board, error) {
	sess, err := s.GetOnboardingSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Status != OnboardingCompleted {
		return nil, nil, fmt.Errorf("cannot confirm session in status %s: %w", sess.Status, ErrConflict)
	}
	if sess.DraftGoal == nil {
		return nil, nil, fmt.Errorf("session has no draft goal: %w", ErrConflict)
	}

	sess.Status = OnboardingConfirmed
	sess.UpdatedAt = utcNow()

	messages, err := jsonColumn(sess.Messages)
	if err != nil {
		return nil, nil, err
	}
	draft, err := jsonColumn(sess.DraftGoal)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := jsonColumn(sess.DraftGoal.SuccessMetrics)
	if err != nil {
		return nil, nil, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE board_onboarding_sessions SET status = ?, messages = ?, draft_goal = ?, updated_at = ?
			 WHERE id = ?`,
			sess.Status, messages, draft, formatTime(sess.UpdatedAt), sess.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE boards SET objective = ?, success_metrics = ?, target_date = ?,
			 goal_confirmed = 1, goal_source = 'onboarding', updated_at = ?
			 WHERE id = ?`,
			sess.DraftGoal.Objective, metrics, formatTimePtr(sess.DraftGoal.TargetDate),
			formatTime(sess.UpdatedAt), sess.BoardID)
		return err
	})
	if err != nil {
		return nil, nil, translateErr(err)
	}

	board, err := s.GetBoard(ctx, sess.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return sess, board, nil
}

func (s *Store) saveOnboarding(ctx context.Context, sess *BoardOnboardingSession) error {
	sess.UpdatedAt = utcNow()

	messages, err := jsonColumn(sess.Messages)
	if err != nil {
		return err
	}
	draft, err := jsonColumn(sess.DraftGoal)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE board_onboarding_sessions SET status = ?, messages = ?, draft_goal = ?, updated_at = ?
		 WHERE id = ?`,
		sess.Status, messages, draft, formatTime(sess.UpdatedAt), sess.ID)
	return translateErr(err)
}

func scanOnboarding(row rowScanner) (*BoardOnboardingSession, error) {
	var sess BoardOnboardingSession
	var messages, draft sql.NullString
	var created, updated string
	if err := row.Scan(&sess.ID, &sess.BoardID, &sess.SessionKey, &sess.Status,
		&messages, &draft, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	if err := scanJSON(messages, &sess.Messages); err != nil {
		return nil, err
	}
	if err := scanJSON(draft, &sess.DraftGoal); err != nil {
		return nil, err
	}
	var err error
	if sess.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if sess.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &sess, nil
}
