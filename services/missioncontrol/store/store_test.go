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

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strp(v string) *string { return &v }

func TestCreateAndGetOrganization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme Robotics")
	require.NoError(t, err)
	assert.NotEmpty(t, org.ID)
	assert.Equal(t, "Acme Robotics", org.Name)

	got, err := s.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	_, err = s.GetOrganization(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateOrganizationNameConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	_, err = s.CreateOrganization(ctx, "Acme")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetOrCreateUserIsIdempotentPerSubject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1, created, err := s.GetOrCreateUser(ctx, "auth0|abc", strp("a@example.com"), strp("Ada"))
	require.NoError(t, err)
	assert.True(t, created)

	u2, created, err := s.GetOrCreateUser(ctx, "auth0|abc", nil, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u1.ID, u2.ID)
}

func TestEnsureMemberUpsertsRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	user, _, err := s.GetOrCreateUser(ctx, "auth0|abc", nil, nil)
	require.NoError(t, err)

	m1, err := s.EnsureMember(ctx, org.ID, user.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "owner", m1.Role)

	// Second call with a different role keeps one row and updates it.
	m2, err := s.EnsureMember(ctx, org.ID, user.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, "admin", m2.Role)

	members, err := s.ListMembers(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestSetActiveOrganization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	user, _, err := s.GetOrCreateUser(ctx, "auth0|abc", nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetActiveOrganization(ctx, user.ID, org.ID))

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActiveOrganizationID)
	assert.Equal(t, org.ID, *got.ActiveOrganizationID)

	err = s.SetActiveOrganization(ctx, "missing", org.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoardPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)

	board := &Board{OrganizationID: org.ID, Name: "Launch", Slug: "launch"}
	require.NoError(t, s.CreateBoard(ctx, board))
	assert.Equal(t, "goal", board.BoardType)
	assert.False(t, board.GoalConfirmed)

	confirmed := true
	updated, err := s.UpdateBoard(ctx, board.ID, BoardPatch{
		Objective:      strp("Ship v1 to production"),
		SuccessMetrics: map[string]any{"signups": float64(100)},
		GoalConfirmed:  &confirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch", updated.Name)
	require.NotNil(t, updated.Objective)
	assert.Equal(t, "Ship v1 to production", *updated.Objective)
	assert.True(t, updated.GoalConfirmed)

	got, err := s.GetBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"signups": float64(100)}, got.SuccessMetrics)
}

func TestBoardAccessGrants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org, err := s.CreateOrganization(ctx, "Acme")
	require.NoError(t, err)
	owner, _, err := s.GetOrCreateUser(ctx, "auth0|owner", nil, nil)
	require.NoError(t, err)
	member, _, err := s.GetOrCreateUser(ctx, "auth0|member", nil, nil)
	require.NoError(t, err)

	ownerMember, err := s.EnsureMember(ctx, org.ID, owner.ID, "owner")
	require.NoError(t, err)
	plainMember, err := s.EnsureMember(ctx, org.ID, member.ID, "member")
	require.NoError(t, err)

	board := &Board{OrganizationID: org.ID, Name: "Launch", Slug: "launch"}
	require.NoError(t, s.CreateBoard(ctx, board))

	// Owners hold implicit write access with no grant row.
	_, canWrite, err := s.BoardAccess(ctx, ownerMember, board.ID)
	require.NoError(t, err)
	assert.True(t, canWrite)

	// Plain members start with nothing.
	canRead, canWrite, err := s.BoardAccess(ctx, plainMember, board.ID)
	require.NoError(t, err)
	assert.False(t, canRead)
	assert.False(t, canWrite)

	require.NoError(t, s.GrantBoardAccess(ctx, plainMember.ID, board.ID, true, false))
	canRead, canWrite, err = s.BoardAccess(ctx, plainMember, board.ID)
	require.NoError(t, err)
	assert.True(t, canRead)
	assert.False(t, canWrite)

	// Re-granting upserts rather than duplicating.
	require.NoError(t, s.GrantBoardAccess(ctx, plainMember.ID, board.ID, true, true))
	_, canWrite, err = s.BoardAccess(ctx, plainMember, board.ID)
	require.NoError(t, err)
	assert.True(t, canWrite)
}
