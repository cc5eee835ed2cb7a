// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"regexp"
	"strings"
	"unicode"
)

// =============================================================================
// PERFORMANCE: Pre-compiled regex (compiled once at startup)
// =============================================================================

var (
	// Reasoning-model think spans, including the tags. (?s) lets the span
	// contain newlines.
	thinkTagRegex    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkingTagRegex = regexp.MustCompile(`(?s)<thinking>.*?</thinking>`)

	// Three-or-more consecutive blank lines collapse to one blank line.
	blankLineRunRegex = regexp.MustCompile(`\n\s*\n\s*\n`)

	// Runs of regular spaces collapse to a single space.
	spaceRunRegex = regexp.MustCompile(` +`)

	// Sentence-ending punctuation followed by a newline and a capital letter
	// rejoins into one space-separated line (heuristic re-wrap).
	sentenceWrapRegex = regexp.MustCompile(`([.!?])\s*\n\s*([A-Z])`)

	// Fence open markers, keeping the language tag directly after the fence.
	fenceOpenRegex = regexp.MustCompile("```(\\w+)?\n")
)

// Clean normalizes a raw completion: think spans are removed, whitespace is
// collapsed, broken sentences are rejoined, and code fences are repaired.
// Clean never fails and is idempotent; an empty input yields an empty string.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = thinkTagRegex.ReplaceAllString(text, "")
	text = thinkingTagRegex.ReplaceAllString(text, "")

	text = blankLineRunRegex.ReplaceAllString(text, "\n\n")
	text = spaceRunRegex.ReplaceAllString(text, " ")

	text = sentenceWrapRegex.ReplaceAllString(text, "$1 $2")

	text = fenceOpenRegex.ReplaceAllString(text, "```$1\n")

	// Strip trailing whitespace per line, then trim the whole text.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
