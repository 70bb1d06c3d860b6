// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package durations parses compact schedule strings used in agent
// heartbeat configuration.
//
// The accepted syntax is a positive integer followed by a single unit
// character: "10m", "1h", "2d", "1w". Parsing is case-insensitive and
// tolerant of surrounding whitespace. Zero, negative, and absurdly large
// schedules (over ten years) are rejected.
package durations

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Validation errors returned by ParseEveryToSeconds. Handlers translate
// these into per-field 422 responses.
var (
	ErrScheduleRequired = errors.New("schedule is required")
	ErrScheduleInvalid  = errors.New(`invalid schedule: expected format like "10m", "1h", "2d", "1w"`)
	ErrScheduleTooLarge = errors.New("schedule is too large (max 10 years)")
)

// schedulePattern matches a positive integer (no leading zero) followed by
// one schedule unit character.
var schedulePattern = regexp.MustCompile(`^([1-9]\d*)([smhdw])$`)

// unitSeconds maps schedule unit characters to their length in seconds.
var unitSeconds = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 60 * 60,
	"d": 60 * 60 * 24,
	"w": 60 * 60 * 24 * 7,
}

// maxScheduleSeconds caps schedules at ten years to catch typos like
// "999999999d" before they reach a scheduler.
const maxScheduleSeconds = int64(60 * 60 * 24 * 365 * 10)

// NormalizeEvery lowercases and strips whitespace from a schedule string.
//
// Returns ErrScheduleRequired if the result is empty.
func NormalizeEvery(value string) (string, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	if normalized == "" {
		return "", ErrScheduleRequired
	}
	return normalized, nil
}

// ParseEveryToSeconds parses a compact schedule string into seconds.
//
// Example:
//
//	secs, err := durations.ParseEveryToSeconds("10m")
//	// secs == 600
//
// Returns ErrScheduleRequired, ErrScheduleInvalid, or ErrScheduleTooLarge
// on bad input.
func ParseEveryToSeconds(value string) (int64, error) {
	normalized, err := NormalizeEvery(value)
	if err != nil {
		return 0, err
	}

	match := schedulePattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, ErrScheduleInvalid
	}

	num, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		// The pattern restricts digits; overflow is the only way here.
		return 0, ErrScheduleTooLarge
	}

	seconds := num * unitSeconds[match[2]]
	if seconds/unitSeconds[match[2]] != num {
		return 0, ErrScheduleTooLarge
	}
	if seconds > maxScheduleSeconds {
		return 0, ErrScheduleTooLarge
	}
	return seconds, nil
}
