// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_UniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := Generate()
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token generated")
		seen[token] = true

		// 32 bytes of entropy encodes to 43 unpadded base64url chars.
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.NotContains(t, token, "=")
	}
}

func TestHashAndVerify_RoundTrip(t *testing.T) {
	token, err := Generate()
	require.NoError(t, err)

	record, err := Hash(token)
	require.NoError(t, err)

	assert.True(t, Verify(token, record))
	assert.False(t, Verify(token+"x", record))

	other, err := Generate()
	require.NoError(t, err)
	assert.False(t, Verify(other, record))
}

func TestHash_NonDeterministic(t *testing.T) {
	token, err := Generate()
	require.NoError(t, err)

	first, err := Hash(token)
	require.NoError(t, err)
	second, err := Hash(token)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salts must differ between calls")
	assert.True(t, Verify(token, first))
	assert.True(t, Verify(token, second))
}

func TestHash_RecordFormat(t *testing.T) {
	record, err := Hash("some-token")
	require.NoError(t, err)

	parts := strings.Split(record, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2_sha256", parts[0])
	assert.Equal(t, "200000", parts[1])
	assert.NotEmpty(t, parts[2])
	assert.NotEmpty(t, parts[3])
}

func TestVerify_MalformedRecords(t *testing.T) {
	token := "any-token"

	malformed := []string{
		"",
		"garbage",
		"a$b$c",                         // wrong field count
		"a$b$c$d$e",                     // wrong field count
		"md5$1000$c2FsdA$ZGlnZXN0",      // unknown algorithm
		"pbkdf2_sha256$abc$c2FsdA$ZGln", // non-numeric iterations
		"pbkdf2_sha256$-1$c2FsdA$ZGln",  // non-positive iterations
		"pbkdf2_sha256$1000$!!!$ZGln",   // undecodable salt
		"pbkdf2_sha256$1000$c2FsdA$!!!", // undecodable digest
	}

	for _, record := range malformed {
		assert.False(t, Verify(token, record), "record %q", record)
	}
}

func TestVerify_AcceptsPaddedBase64(t *testing.T) {
	// Older records carried base64 padding; verification must still work.
	record, err := Hash("padded-token")
	require.NoError(t, err)

	parts := strings.Split(record, "$")
	require.Len(t, parts, 4)
	padded := parts[0] + "$" + parts[1] + "$" + parts[2] + "==" + "$" + parts[3]
	assert.True(t, Verify("padded-token", padded))
}
