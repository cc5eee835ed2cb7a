// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"regexp"
	"strings"
)

// =============================================================================
// EXTRACTION PATTERNS
// =============================================================================

var (
	// Fenced code blocks: optional language tag, body up to the closing fence.
	codeBlockRegex = regexp.MustCompile("(?s)```(\\w+)?\n(.*?)```")

	// Bare URLs. A closing paren ends the URL so markdown links parse cleanly.
	urlRegex = regexp.MustCompile(`https?://[^\s)]+`)

	// Markdown [text](url) links.
	markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	// Markdown headers, bullets, and numbered items (line-anchored).
	headerRegex       = regexp.MustCompile(`(?m)^#+\s+(.+)$`)
	bulletItemRegex   = regexp.MustCompile(`(?m)^[*\-+]\s+(.+)$`)
	numberedItemRegex = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)

	// Social-style tokens.
	mentionRegex = regexp.MustCompile(`@\w+`)
	hashtagRegex = regexp.MustCompile(`#\w+`)
)

// =============================================================================
// METADATA TYPES
// =============================================================================

// CodeBlock is one fenced code block extracted from a completion.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// MarkdownLink is one [text](url) pair extracted from a completion.
type MarkdownLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Metadata holds the structured facts extracted from cleaned text. Each
// slice is nil when the corresponding pattern found no match, so a JSON
// rendering only carries the keys that were actually present.
type Metadata struct {
	CodeBlocks        []CodeBlock    `json:"code_blocks,omitempty"`
	Links             []string       `json:"links,omitempty"`
	MarkdownLinks     []MarkdownLink `json:"markdown_links,omitempty"`
	Headers           []string       `json:"headers,omitempty"`
	ListItems         []string       `json:"list_items,omitempty"`
	NumberedListItems []string       `json:"numbered_list_items,omitempty"`
	Mentions          []string       `json:"mentions,omitempty"`
	Hashtags          []string       `json:"hashtags,omitempty"`
}

// IsEmpty reports whether no pattern produced a match.
func (m Metadata) IsEmpty() bool {
	return len(m.CodeBlocks) == 0 &&
		len(m.Links) == 0 &&
		len(m.MarkdownLinks) == 0 &&
		len(m.Headers) == 0 &&
		len(m.ListItems) == 0 &&
		len(m.NumberedListItems) == 0 &&
		len(m.Mentions) == 0 &&
		len(m.Hashtags) == 0
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractMetadata runs each extraction pattern independently over cleaned
// text. Matches keep first-to-last order of appearance.
func ExtractMetadata(text string) Metadata {
	var md Metadata

	for _, m := range codeBlockRegex.FindAllStringSubmatch(text, -1) {
		lang := m[1]
		if lang == "" {
			lang = "text"
		}
		md.CodeBlocks = append(md.CodeBlocks, CodeBlock{
			Language: lang,
			Code:     strings.TrimSpace(m[2]),
		})
	}

	md.Links = urlRegex.FindAllString(text, -1)

	for _, m := range markdownLinkRegex.FindAllStringSubmatch(text, -1) {
		md.MarkdownLinks = append(md.MarkdownLinks, MarkdownLink{Text: m[1], URL: m[2]})
	}

	md.Headers = captureGroups(headerRegex, text)
	md.ListItems = captureGroups(bulletItemRegex, text)
	md.NumberedListItems = captureGroups(numberedItemRegex, text)

	md.Mentions = mentionRegex.FindAllString(text, -1)
	md.Hashtags = hashtagRegex.FindAllString(text, -1)

	return md
}

// captureGroups returns the first capture group of every match, in order.
func captureGroups(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
