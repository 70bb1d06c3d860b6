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
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateOrganization inserts a new tenant. Duplicate names return
// ErrConflict.
func (s *Store) CreateOrganization(ctx context.Context, name string) (*Organization, error) {
	org := &Organization{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: utcNow(),
		UpdatedAt: utcNow(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		org.ID, org.Name, formatTime(org.CreatedAt), formatTime(org.UpdatedAt))
	if err != nil {
		return nil, translateErr(err)
	}
	return org, nil
}

// GetOrganization fetches a tenant by id.
func (s *Store) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM organizations WHERE id = ?`, id)

	var org Organization
	var created, updated string
	if err := row.Scan(&org.ID, &org.Name, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	var err error
	if org.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if org.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetOrCreateUser resolves a user by identity-provider subject, creating
// the row on first sight with claims-derived defaults. Returns the user
// and whether it was created.
func (s *Store) GetOrCreateUser(ctx context.Context, subject string, email, name *string) (*User, bool, error) {
	user, err := s.getUserBySubject(ctx, subject)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	user = &User{
		ID:      uuid.NewString(),
		Subject: subject,
		Email:   email,
		Name:    name,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, subject, email, name, is_super_admin) VALUES (?, ?, ?, ?, 0)`,
		user.ID, user.Subject, nullable(user.Email), nullable(user.Name))
	if err != nil {
		// Two requests can race on first sight; the unique subject wins.
		if errors.Is(translateErr(err), ErrConflict) {
			existing, lookupErr := s.getUserBySubject(ctx, subject)
			if lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, translateErr(err)
	}
	return user, true, nil
}

func (s *Store) getUserBySubject(ctx context.Context, subject string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, email, name, preferred_name, timezone, is_super_admin, active_organization_id
		 FROM users WHERE subject = ?`, subject)
	return scanUser(row)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, email, name, preferred_name, timezone, is_super_admin, active_organization_id
		 FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var email, name, preferred, tz, activeOrg sql.NullString
	var superAdmin int
	if err := row.Scan(&u.ID, &u.Subject, &email, &name, &preferred, &tz, &superAdmin, &activeOrg); err != nil {
		return nil, translateErr(err)
	}
	u.Email = strPtr(email)
	u.Name = strPtr(name)
	u.PreferredName = strPtr(preferred)
	u.Timezone = strPtr(tz)
	u.IsSuperAdmin = superAdmin != 0
	u.ActiveOrganizationID = strPtr(activeOrg)
	return &u, nil
}

// SetActiveOrganization points a user at their current tenant.
func (s *Store) SetActiveOrganization(ctx context.Context, userID, orgID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET active_organization_id = ? WHERE id = ?`, orgID, userID)
	if err != nil {
		return translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureMember guarantees a membership row exists for the user in the
// organization, creating one with the given role if missing. The first
// member of a fresh organization should be created with role "owner".
func (s *Store) EnsureMember(ctx context.Context, orgID, userID, role string) (*OrganizationMember, error) {
	member, err := s.GetMember(ctx, orgID, userID)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	member = &OrganizationMember{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      utcNow(),
		UpdatedAt:      utcNow(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO organization_members (id, organization_id, user_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID, member.OrganizationID, member.UserID, member.Role,
		formatTime(member.CreatedAt), formatTime(member.UpdatedAt))
	if err != nil {
		return nil, translateErr(err)
	}
	return member, nil
}

// GetMember fetches the membership row linking a user to an organization.
func (s *Store) GetMember(ctx context.Context, orgID, userID string) (*OrganizationMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at, updated_at
		 FROM organization_members WHERE organization_id = ? AND user_id = ?`, orgID, userID)

	var m OrganizationMember
	var created, updated string
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &created, &updated); err != nil {
		return nil, translateErr(err)
	}
	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns all membership rows for an organization.
func (s *Store) ListMembers(ctx context.Context, orgID string) ([]OrganizationMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, user_id, role, created_at, updated_at
		 FROM organization_members WHERE organization_id = ? ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var members []OrganizationMember
	for rows.Next() {
		var m OrganizationMember
		var created, updated string
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &created, &updated); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if m.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateInvite records an email invitation into the organization.
func (s *Store) CreateInvite(ctx context.Context, invite *OrganizationInvite) error {
	invite.ID = uuid.NewString()
	invite.CreatedAt = utcNow()
	invite.UpdatedAt = invite.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organization_invites
		 (id, organization_id, invited_email, token, role, all_boards_read, all_boards_write,
		  created_by_user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invite.ID, invite.OrganizationID, invite.InvitedEmail, invite.Token, invite.Role,
		boolInt(invite.AllBoardsRead), boolInt(invite.AllBoardsWrite),
		nullable(invite.CreatedByUserID), formatTime(invite.CreatedAt), formatTime(invite.UpdatedAt))
	return translateErr(err)
}

// ListInvites returns all invites for an organization.
func (s *Store) ListInvites(ctx context.Context, orgID string) ([]OrganizationInvite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, invited_email, token, role, all_boards_read, all_boards_write,
		        created_by_user_id, accepted_by_user_id, accepted_at, created_at, updated_at
		 FROM organization_invites WHERE organization_id = ? ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var invites []OrganizationInvite
	for rows.Next() {
		var inv OrganizationInvite
		var read, write int
		var createdBy, acceptedBy, acceptedAt sql.NullString
		var created, updated string
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.InvitedEmail, &inv.Token, &inv.Role,
			&read, &write, &createdBy, &acceptedBy, &acceptedAt, &created, &updated); err != nil {
			return nil, err
		}
		inv.AllBoardsRead = read != 0
		inv.AllBoardsWrite = write != 0
		inv.CreatedByUserID = strPtr(createdBy)
		inv.AcceptedByUserID = strPtr(acceptedBy)
		if inv.AcceptedAt, err = parseTimePtr(acceptedAt); err != nil {
			return nil, err
		}
		if inv.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if inv.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
