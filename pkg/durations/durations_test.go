// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package durations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEveryToSeconds_ValidInputs(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"10m", 600},
		{"1s", 1},
		{"45s", 45},
		{"1h", 3600},
		{"2d", 172800},
		{"1w", 604800},
		{" 1H ", 3600},   // normalization: whitespace + case
		{"10 m", 600},    // inner space removed
		{"52w", 52 * 604800},
	}

	for _, tc := range tests {
		got, err := ParseEveryToSeconds(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestParseEveryToSeconds_InvalidInputs(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{"", ErrScheduleRequired},
		{"   ", ErrScheduleRequired},
		{"0m", ErrScheduleInvalid},   // no leading zero / zero value
		{"-5h", ErrScheduleInvalid},  // negative
		{"10x", ErrScheduleInvalid},  // unknown unit
		{"m10", ErrScheduleInvalid},  // unit first
		{"10", ErrScheduleInvalid},   // missing unit
		{"1.5h", ErrScheduleInvalid}, // fractional
		{"999999999d", ErrScheduleTooLarge},
	}

	for _, tc := range tests {
		_, err := ParseEveryToSeconds(tc.input)
		assert.ErrorIs(t, err, tc.wantErr, "input %q", tc.input)
	}
}

func TestNormalizeEvery(t *testing.T) {
	got, err := NormalizeEvery("  2 D ")
	require.NoError(t, err)
	assert.Equal(t, "2d", got)

	_, err = NormalizeEvery("  ")
	assert.ErrorIs(t, err, ErrScheduleRequired)
}
