// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package response implements the post-processing pipeline for raw model
// completions.
//
// A single call to Processor.Process runs an ordered sequence of independent
// passes over one raw completion string and returns a ProcessedResponse
// bundle with derived views and extracted facts:
//
//   - cleaning and whitespace normalization (think-tag stripping, blank-line
//     collapsing, code-fence repair)
//   - metadata extraction (code blocks, links, headers, lists, mentions)
//   - format conversion to HTML (goldmark + chroma highlighting) and to
//     plain text
//   - heuristic analysis (sentiment, language, action items, key points)
//   - quality validation with a 0-100 score
//
// Every pass is a pure function of its text input and fixed lookup tables,
// so Process is safe to call from any goroutine without locking. Processing
// never fails past the package boundary: internal failures degrade to a
// fallback record carrying the unprocessed input and an error description.
//
// # Usage
//
//	proc := response.NewProcessor()
//	rec := proc.Process(rawCompletion, nil)
//	fmt.Println(rec.HTML)
package response
