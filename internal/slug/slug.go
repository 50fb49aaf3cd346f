// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns free text into the URL-safe usernames public pages
// are served under.
package slug

import (
	"regexp"
	"strings"
)

// MaxLen is the longest username Username returns.
const MaxLen = 30

var (
	// disallowed matches anything that isn't a letter, digit, space,
	// hyphen or underscore.
	disallowed = regexp.MustCompile(`[^a-z0-9_\s-]`)
	// whitespace collapses runs of spaces into one hyphen.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Username creates a username from s.
// Example: "@Jane Doe!" → "jane-doe"
func Username(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = disallowed.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-_")
	if len(result) > MaxLen {
		result = strings.TrimRight(result[:MaxLen], "-_")
	}
	return result
}
