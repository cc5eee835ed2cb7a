// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations to downloadable formats.
//
// Five formats are supported: plain text, JSON, CSV, HTML, and PDF.
// PDF has no native renderer and degrades to the HTML payload with a
// text/html MIME type, so callers always get something usable back.
package export
