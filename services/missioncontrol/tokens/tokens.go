// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tokens issues and verifies bearer credentials for agent actors.
//
// # Description
//
// Agents authenticate with an opaque random token presented in the
// X-Agent-Token header. The database stores only a self-describing digest
// record of the token, never the token itself:
//
//	pbkdf2_sha256$<iterations>$<salt-b64>$<digest-b64>
//
// Verification parses the record, recomputes the derivation with the
// embedded salt and iteration count, and compares digests in constant
// time. A malformed record verifies as false rather than erroring, so a
// corrupted row can never be mistaken for a transient failure.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// algorithmTag identifies the derivation scheme in stored digest records.
const algorithmTag = "pbkdf2_sha256"

// Iterations is the PBKDF2 round count for newly minted digest records.
// Verification always uses the count embedded in the record, so this can
// be raised without invalidating existing credentials.
const Iterations = 200_000

const (
	tokenBytes  = 32 // 256 bits of entropy per token
	saltBytes   = 16 // 128-bit random salt per digest record
	digestBytes = sha256.Size
)

// b64 is unpadded URL-safe base64, matching the token alphabet.
var b64 = base64.RawURLEncoding

// Generate produces a new URL-safe random agent token.
//
// Each call draws 32 bytes from crypto/rand, so successive tokens are
// statistically independent.
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return b64.EncodeToString(buf), nil
}

// Hash derives a digest record for a token with a fresh random salt.
//
// Two calls on the same token produce different records; both verify.
func Hash(token string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := pbkdf2.Key([]byte(token), salt, Iterations, digestBytes, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s",
		algorithmTag, Iterations, b64.EncodeToString(salt), b64.EncodeToString(digest)), nil
}

// Verify reports whether token matches the stored digest record.
//
// Returns false for any malformed record: wrong field count, unknown
// algorithm tag, non-numeric iteration count, or undecodable salt/digest.
// The digest comparison is constant-time.
func Verify(token, record string) bool {
	parts := strings.Split(record, "$")
	if len(parts) != 4 {
		return false
	}
	if parts[0] != algorithmTag {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}

	salt, err := decodeB64(parts[2])
	if err != nil {
		return false
	}
	expected, err := decodeB64(parts[3])
	if err != nil {
		return false
	}

	candidate := pbkdf2.Key([]byte(token), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(candidate, expected) == 1
}

// decodeB64 accepts both padded and unpadded URL-safe base64. Records
// written by older versions of the backend carried padding.
func decodeB64(value string) ([]byte, error) {
	trimmed := strings.TrimRight(value, "=")
	return b64.DecodeString(trimmed)
}
