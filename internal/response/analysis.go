// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// LOOKUP TABLES
// =============================================================================

// Fixed keyword tables for the heuristic analyses. These are deliberately
// shallow literal lists, not a learned classifier, so behavior stays
// reproducible across runs.

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "amazing": true,
	"wonderful": true, "fantastic": true, "perfect": true, "brilliant": true,
	"outstanding": true, "superb": true, "helpful": true, "useful": true,
	"love": true, "like": true, "enjoy": true, "pleased": true,
	"happy": true, "glad": true, "excited": true, "awesome": true,
	"incredible": true, "impressive": true, "remarkable": true, "fabulous": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "awful": true, "horrible": true,
	"worst": true, "hate": true, "dislike": true, "wrong": true,
	"error": true, "problem": true, "issue": true, "difficult": true,
	"hard": true, "impossible": true, "failed": true, "failure": true,
	"broken": true, "sorry": true, "unfortunately": true, "sad": true,
	"disappointed": true, "frustrated": true, "annoyed": true, "angry": true,
	"upset": true,
}

// englishIndicators are common English function words used for the
// language-ratio check.
var englishIndicators = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

// actionPatterns match action-oriented lead-in phrases, capturing the rest
// of the line. Order matters: candidates accumulate pattern by pattern
// before deduplication.
var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you should (.+)`),
	regexp.MustCompile(`(?i)you need to (.+)`),
	regexp.MustCompile(`(?i)you must (.+)`),
	regexp.MustCompile(`(?i)you can (.+)`),
	regexp.MustCompile(`(?i)try to (.+)`),
	regexp.MustCompile(`(?i)consider (.+)`),
	regexp.MustCompile(`(?i)make sure to (.+)`),
	regexp.MustCompile(`(?i)don't forget to (.+)`),
	regexp.MustCompile(`(?i)remember to (.+)`),
	regexp.MustCompile(`(?i)it's important to (.+)`),
}

// keyIndicators flag sentences that carry summary-level ideas.
var keyIndicators = []string{
	"important", "key", "main", "primary", "essential", "crucial",
	"significant", "notable", "remember", "note that", "keep in mind",
	"in summary", "to summarize", "in conclusion", "overall",
	"the point is", "basically", "fundamentally",
}

var sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)

// =============================================================================
// SENTIMENT CONSTANTS
// =============================================================================

// Sentiment classifications returned by AnalyzeSentiment.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Language codes returned by DetectLanguage.
const (
	LanguageEnglish = "en"
	LanguageUnknown = "unknown"
)

// =============================================================================
// PRESENCE CHECKS
// =============================================================================

// HasCodeBlocks reports whether the text contains a code fence marker.
func HasCodeBlocks(text string) bool {
	return strings.Contains(text, "```")
}

// HasLinks reports whether the text contains a bare URL.
func HasLinks(text string) bool {
	return urlRegex.MatchString(text)
}

// HasLists reports whether the text contains a bulleted or numbered list item.
func HasLists(text string) bool {
	return bulletItemRegex.MatchString(text) || numberedItemRegex.MatchString(text)
}

// =============================================================================
// SENTIMENT AND LANGUAGE
// =============================================================================

// AnalyzeSentiment classifies text by counting matches against the fixed
// positive and negative word tables. Ties (including no matches at all)
// resolve to neutral.
func AnalyzeSentiment(text string) string {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	for _, w := range words {
		if positiveWords[w] {
			positive++
		}
		if negativeWords[w] {
			negative++
		}
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// DetectLanguage returns "en" when more than 10% of the words are common
// English function words, "unknown" otherwise.
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return LanguageUnknown
	}

	var hits int
	for _, w := range words {
		if englishIndicators[w] {
			hits++
		}
	}

	if float64(hits)/float64(len(words)) > 0.1 {
		return LanguageEnglish
	}
	return LanguageUnknown
}

// =============================================================================
// ACTION ITEMS
// =============================================================================

// maxActionItems caps the number of extracted action items.
const maxActionItems = 10

// ExtractActionItems collects action-oriented phrases: lead-in pattern
// captures first, then numbered and bulleted list items. Candidates are
// trimmed of surrounding whitespace and trailing periods, deduplicated by
// exact text preserving first-occurrence order, and capped at 10.
func ExtractActionItems(text string) []string {
	var candidates []string

	for _, re := range actionPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, m[1])
		}
	}

	candidates = append(candidates, captureGroups(numberedItemRegex, text)...)
	candidates = append(candidates, captureGroups(bulletItemRegex, text)...)

	var items []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = strings.TrimRight(strings.TrimSpace(c), ".")
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		items = append(items, c)
		if len(items) == maxActionItems {
			break
		}
	}

	return items
}

// =============================================================================
// KEY POINTS
// =============================================================================

// maxKeyPoints caps the number of extracted key points.
const maxKeyPoints = 8

// minKeyPointLength ignores very short sentence fragments.
const minKeyPointLength = 10

// ExtractKeyPoints collects sentences containing a key-point indicator
// phrase, plus every markdown header, deduplicated in order and capped at 8.
func ExtractKeyPoints(text string) []string {
	var candidates []string

	for _, sentence := range sentenceSplitRegex.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if utf8.RuneCountInString(sentence) <= minKeyPointLength {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, indicator := range keyIndicators {
			if strings.Contains(lower, indicator) {
				candidates = append(candidates, sentence)
				break
			}
		}
	}

	candidates = append(candidates, captureGroups(headerRegex, text)...)

	var points []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		points = append(points, c)
		if len(points) == maxKeyPoints {
			break
		}
	}

	return points
}
