// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package response

import (
	"bytes"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.abhg.dev/goldmark/toc"
)

// =============================================================================
// HTML CONVERSION
// =============================================================================

var (
	// Presentation classes injected into the rendered HTML.
	headingTagRegex = regexp.MustCompile(`<h([1-6])`)
	anchorTagRegex  = regexp.MustCompile(`<a href="([^"]+)">`)

	htmlClassReplacer = strings.NewReplacer(
		"<p>", `<p class="response-paragraph">`,
		"<code>", `<code class="response-code">`,
		"<pre>", `<pre class="response-pre">`,
		"<blockquote>", `<blockquote class="response-quote">`,
		"<ul>", `<ul class="response-list">`,
		"<ol>", `<ol class="response-list">`,
		"<table>", `<table class="response-table">`,
	)
)

// newMarkdown builds the goldmark engine used for HTML conversion: fenced
// code with chroma syntax highlighting, tables, and a table of contents.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
			&toc.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// toHTML renders cleaned text to HTML and injects presentation classes.
// Anchors are forced to open in a new browsing context with the safe
// noopener noreferrer relation. On any rendering failure the cleaned text
// is wrapped in a single paragraph tag instead.
func (p *Processor) toHTML(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = "<p>" + text + "</p>"
		}
	}()

	var buf bytes.Buffer
	if err := p.md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + text + "</p>"
	}

	html := buf.String()
	html = headingTagRegex.ReplaceAllString(html, `<h$1 class="response-header"`)
	html = htmlClassReplacer.Replace(html)
	html = anchorTagRegex.ReplaceAllString(html, `<a href="$1" target="_blank" rel="noopener noreferrer">`)

	return html
}

// =============================================================================
// PLAIN TEXT CONVERSION
// =============================================================================

var (
	inlineMarkerRegex = regexp.MustCompile("[*_`~]")
	headerMarkerRegex = regexp.MustCompile(`#+\s+`)
	blockquoteRegex   = regexp.MustCompile(`>\s+`)
	bulletPrefixRegex = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberPrefixRegex = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
)

// ToPlainText strips markdown structure from cleaned text: emphasis and code
// markers, header and blockquote markers, list lead-ins, and link syntax
// (keeping the link text).
func ToPlainText(text string) string {
	text = inlineMarkerRegex.ReplaceAllString(text, "")
	text = headerMarkerRegex.ReplaceAllString(text, "")
	text = markdownLinkRegex.ReplaceAllString(text, "$1")
	text = blockquoteRegex.ReplaceAllString(text, "")
	text = bulletPrefixRegex.ReplaceAllString(text, "")
	text = numberPrefixRegex.ReplaceAllString(text, "")

	text = blankLineRunRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
