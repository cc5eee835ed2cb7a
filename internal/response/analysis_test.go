// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// SENTIMENT TESTS
// =============================================================================

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"This is good and great", SentimentPositive},
		{"This is bad and terrible", SentimentNegative},
		{"The cat sat on the mat", SentimentNeutral},
		{"good but broken", SentimentNeutral}, // tie
		{"", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeSentiment(tt.text))
		})
	}
}

// =============================================================================
// LANGUAGE DETECTION TESTS
// =============================================================================

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"the cat and the hat sat on the mat with the bat", LanguageEnglish},
		{"xyz qwr zzt", LanguageUnknown},
		{"", LanguageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

// =============================================================================
// ACTION ITEM TESTS
// =============================================================================

func TestExtractActionItems_LeadInPhrases(t *testing.T) {
	text := "You should review the logs.\nAlso, remember to back up the database."
	items := ExtractActionItems(text)

	assert.Contains(t, items, "review the logs")
	assert.Contains(t, items, "back up the database")
}

func TestExtractActionItems_ListItems(t *testing.T) {
	text := "1. install the package\n2. run the tests\n- clean up afterwards"
	items := ExtractActionItems(text)

	assert.Equal(t, []string{"install the package", "run the tests", "clean up afterwards"}, items)
}

func TestExtractActionItems_DedupeAndCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "%d. step number %d\n", i+1, i+1)
	}
	// A duplicate of an already-captured item.
	sb.WriteString("1. step number 1\n")

	items := ExtractActionItems(sb.String())

	assert.Len(t, items, maxActionItems)
	seen := make(map[string]bool)
	for _, item := range items {
		assert.False(t, seen[item], "duplicate action item %q", item)
		seen[item] = true
	}
}

func TestExtractActionItems_TrimsTrailingPeriods(t *testing.T) {
	items := ExtractActionItems("You must restart the server.")
	assert.Equal(t, []string{"restart the server"}, items)
}

func TestExtractActionItems_None(t *testing.T) {
	assert.Empty(t, ExtractActionItems("nothing actionable here"))
}

// =============================================================================
// KEY POINT TESTS
// =============================================================================

func TestExtractKeyPoints_IndicatorSentences(t *testing.T) {
	text := "The most important thing is to test early. The weather is nice today. In summary, testing pays off."
	points := ExtractKeyPoints(text)

	assert.Contains(t, points, "The most important thing is to test early")
	assert.Contains(t, points, "In summary, testing pays off")
	assert.NotContains(t, points, "The weather is nice today")
}

func TestExtractKeyPoints_IncludesHeaders(t *testing.T) {
	points := ExtractKeyPoints("# Setup\n\nSome prose without indicators here.")
	assert.Equal(t, []string{"Setup"}, points)
}

func TestExtractKeyPoints_DedupeAndCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "It is important to know fact number %d. ", i+1)
	}
	sb.WriteString("It is important to know fact number 1. ")

	points := ExtractKeyPoints(sb.String())

	assert.Len(t, points, maxKeyPoints)
	seen := make(map[string]bool)
	for _, p := range points {
		assert.False(t, seen[p], "duplicate key point %q", p)
		seen[p] = true
	}
}

func TestExtractKeyPoints_IgnoresShortSentences(t *testing.T) {
	assert.Empty(t, ExtractKeyPoints("Key. Main."))
}

// =============================================================================
// PRESENCE CHECK TESTS
// =============================================================================

func TestPresenceChecks(t *testing.T) {
	assert.True(t, HasCodeBlocks("```go\ncode\n```"))
	assert.False(t, HasCodeBlocks("no fences"))

	assert.True(t, HasLinks("see https://example.com"))
	assert.False(t, HasLinks("no links"))

	assert.True(t, HasLists("- item"))
	assert.True(t, HasLists("1. item"))
	assert.False(t, HasLists("prose only"))
}
