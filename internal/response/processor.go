// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
)

// =============================================================================
// PROCESSED RESPONSE
// =============================================================================

// ProcessedResponse is the derived bundle produced from one raw completion.
// It is recomputed on every Process call and never persisted; only the
// original text is stored by the persistence layer.
type ProcessedResponse struct {
	Original       string            `json:"original"`
	Cleaned        string            `json:"cleaned"`
	HTML           string            `json:"html"`
	PlainText      string            `json:"plain_text"`
	Metadata       Metadata          `json:"metadata"`
	WordCount      int               `json:"word_count"`
	CharacterCount int               `json:"character_count"`
	ProcessedAt    time.Time         `json:"processed_at"`
	HasCode        bool              `json:"has_code"`
	HasLinks       bool              `json:"has_links"`
	HasLists       bool              `json:"has_lists"`
	Sentiment      string            `json:"sentiment"`
	Language       string            `json:"language"`
	ActionItems    []string          `json:"action_items"`
	KeyPoints      []string          `json:"key_points"`
	Context        map[string]string `json:"context,omitempty"`

	// Err is non-empty when processing degraded to the fallback record.
	Err string `json:"error,omitempty"`
}

// Failed reports whether this record is a degraded fallback.
func (r *ProcessedResponse) Failed() bool {
	return r.Err != ""
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor runs the response post-processing pipeline. The zero-cost
// lookup tables are package-level; the only per-processor state is the
// markdown engine, which is safe for concurrent use.
type Processor struct {
	md goldmark.Markdown
}

// NewProcessor creates a Processor with the standard markdown engine
// (fenced code highlighting, tables, table of contents).
func NewProcessor() *Processor {
	return &Processor{md: newMarkdown()}
}

// Process runs the full pipeline over one raw completion. The optional
// context map is threaded through to the result unchanged; the passes do
// not consume it. Process never fails past this boundary: any internal
// failure degrades to a record carrying the unprocessed input and an error
// description.
func (p *Processor) Process(raw string, context map[string]string) (rec *ProcessedResponse) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("response: processing failed: %v", r)
			rec = degraded(raw, fmt.Errorf("%v", r))
			rec.Context = context
		}
	}()

	cleaned := Clean(raw)

	return &ProcessedResponse{
		Original:       raw,
		Cleaned:        cleaned,
		HTML:           p.toHTML(cleaned),
		PlainText:      ToPlainText(cleaned),
		Metadata:       ExtractMetadata(cleaned),
		WordCount:      len(strings.Fields(cleaned)),
		CharacterCount: utf8.RuneCountInString(cleaned),
		ProcessedAt:    time.Now(),
		HasCode:        HasCodeBlocks(cleaned),
		HasLinks:       HasLinks(cleaned),
		HasLists:       HasLists(cleaned),
		Sentiment:      AnalyzeSentiment(cleaned),
		Language:       DetectLanguage(cleaned),
		ActionItems:    ExtractActionItems(cleaned),
		KeyPoints:      ExtractKeyPoints(cleaned),
		Context:        context,
	}
}

// degraded builds the fallback record: all derived views equal the
// unprocessed input and the metadata is empty.
func degraded(raw string, err error) *ProcessedResponse {
	return &ProcessedResponse{
		Original:    raw,
		Cleaned:     raw,
		HTML:        raw,
		PlainText:   raw,
		Metadata:    Metadata{},
		ProcessedAt: time.Now(),
		Err:         err.Error(),
	}
}

// =============================================================================
// DISPLAY FORMATTING
// =============================================================================

// DisplayKind selects the view returned by FormatForDisplay.
type DisplayKind string

const (
	DisplayHTML     DisplayKind = "html"
	DisplayMarkdown DisplayKind = "markdown"
	DisplayPlain    DisplayKind = "plain"
)

// FormatForDisplay processes raw text and returns the view matching the
// requested kind. Unknown kinds return the cleaned text.
func (p *Processor) FormatForDisplay(raw string, kind DisplayKind) string {
	rec := p.Process(raw, nil)

	switch kind {
	case DisplayHTML:
		return rec.HTML
	case DisplayMarkdown:
		return rec.Cleaned
	case DisplayPlain:
		return rec.PlainText
	default:
		return rec.Cleaned
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary condenses a processed response into counts and analysis results.
type Summary struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Lines      int `json:"lines"`

	HasCode    bool `json:"has_code"`
	HasLinks   bool `json:"has_links"`
	HasLists   bool `json:"has_lists"`
	CodeBlocks int  `json:"code_blocks"`
	Links      int  `json:"links"`
	Headers    int  `json:"headers"`

	Sentiment   string   `json:"sentiment"`
	Language    string   `json:"language"`
	ActionItems []string `json:"action_items"`
	KeyPoints   []string `json:"key_points"`
}

// Summarize processes raw text and returns its summary.
func (p *Processor) Summarize(raw string) Summary {
	rec := p.Process(raw, nil)

	return Summary{
		Words:       rec.WordCount,
		Characters:  rec.CharacterCount,
		Lines:       len(strings.Split(rec.Cleaned, "\n")),
		HasCode:     rec.HasCode,
		HasLinks:    rec.HasLinks,
		HasLists:    rec.HasLists,
		CodeBlocks:  len(rec.Metadata.CodeBlocks),
		Links:       len(rec.Metadata.Links),
		Headers:     len(rec.Metadata.Headers),
		Sentiment:   rec.Sentiment,
		Language:    rec.Language,
		ActionItems: rec.ActionItems,
		KeyPoints:   rec.KeyPoints,
	}
}
