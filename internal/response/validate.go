// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// VALIDATION
// =============================================================================

const (
	// minResponseLength is the minimum trimmed length for a valid response.
	minResponseLength = 10

	// issueScorePenalty and warningScorePenalty adjust the quality score.
	issueScorePenalty   = 20
	warningScorePenalty = 5

	// formattingScoreBonus rewards code blocks, lists, and headers.
	formattingScoreBonus = 5

	// repetitionWordThreshold is the minimum word count before the
	// repetition check applies.
	repetitionWordThreshold = 20

	// repetitionRatio flags a response when the most frequent word exceeds
	// this share of all words.
	repetitionRatio = 0.1
)

// Validation holds the result of a response quality check.
type Validation struct {
	IsValid      bool     `json:"is_valid"`
	Issues       []string `json:"issues"`
	Warnings     []string `json:"warnings"`
	QualityScore int      `json:"quality_score"`
}

// Validate checks a raw response for completeness and well-formedness and
// assigns a 0-100 quality score. The score is a heuristic rating of shape,
// not of factual correctness.
func Validate(text string) Validation {
	v := Validation{
		IsValid:  true,
		Issues:   []string{},
		Warnings: []string{},
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < minResponseLength {
		v.IsValid = false
		v.Issues = append(v.Issues, "Response too short")
	}

	if strings.Count(text, "```")%2 != 0 {
		v.IsValid = false
		v.Issues = append(v.Issues, "Unfinished code block")
	}

	// Excessive repetition of a single word.
	words := strings.Fields(strings.ToLower(text))
	if len(words) > repetitionWordThreshold {
		counts := make(map[string]int, len(words))
		maxCount := 0
		for _, w := range words {
			counts[w]++
			if counts[w] > maxCount {
				maxCount = counts[w]
			}
		}
		if float64(maxCount) > float64(len(words))*repetitionRatio {
			v.Warnings = append(v.Warnings, "High word repetition detected")
		}
	}

	// Sentence fragments of one or two characters suggest broken structure.
	var incomplete int
	for _, s := range sentenceSplitRegex.Split(text, -1) {
		n := utf8.RuneCountInString(strings.TrimSpace(s))
		if n > 0 && n < 3 {
			incomplete++
		}
	}
	if incomplete > 2 {
		v.Warnings = append(v.Warnings, "Multiple incomplete sentences")
	}

	score := 100
	score -= len(v.Issues) * issueScorePenalty
	score -= len(v.Warnings) * warningScorePenalty

	if HasCodeBlocks(text) {
		score += formattingScoreBonus
	}
	if HasLists(text) {
		score += formattingScoreBonus
	}
	if headerRegex.MatchString(text) {
		score += formattingScoreBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	v.QualityScore = score

	return v
}
