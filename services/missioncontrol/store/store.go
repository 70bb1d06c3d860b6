// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store provides SQLite-backed persistence for Mission Control.
//
// # Description
//
// The store holds every tenant-scoped entity: organizations, users,
// memberships, invites, gateways, board groups, boards, agents, tasks,
// and the board-scoped audit/memory records. All rows are keyed by UUID
// strings and carry UTC timestamps.
//
// Deletion never relies on database-declared cascade rules. Tenant and
// board removal run a hand-ordered sequence of DELETE statements inside
// one transaction (see cascade.go), so a failure anywhere rolls the
// whole operation back.
//
// # Thread Safety
//
// Store is safe for concurrent use; SQLite serializes writers via the
// connection pool (single writer, WAL journal).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Sentinel errors translated by handlers into HTTP statuses.
var (
	// ErrNotFound indicates a referenced row does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or integrity violation (409).
	// The surrounding transaction has already been rolled back when this
	// is returned.
	ErrConflict = errors.New("conflict")
)

// Store wraps the SQLite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the Mission Control database at
// path and ensures the schema exists.
//
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite supports a single writer; avoid SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// DB exposes the raw handle for integration tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// utcNow returns the current time truncated to UTC seconds. Second
// precision keeps RFC 3339 round-trips through SQLite lossless.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// translateErr maps driver-level integrity failures onto ErrConflict so
// callers never need to inspect driver error strings.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}
	return err
}

// inTx runs fn inside a transaction, committing on success and rolling
// back on any error. Integrity failures come back as ErrConflict.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return translateErr(err)
	}
	return nil
}
