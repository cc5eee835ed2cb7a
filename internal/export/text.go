// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/parley/internal/storage"
)

// =============================================================================
// PLAIN TEXT EXPORTER
// =============================================================================

// TextExporter renders a conversation as banner-delimited plain text.
type TextExporter struct{}

// FileExtension returns ".txt".
func (e *TextExporter) FileExtension() string { return ".txt" }

// MimeType returns "text/plain".
func (e *TextExporter) MimeType() string { return "text/plain" }

// Export renders the conversation transcript.
func (e *TextExporter) Export(messages []storage.Message, conversationID string) ([]byte, error) {
	banner := strings.Repeat("=", 60)
	rule := strings.Repeat("-", 40)

	var sb strings.Builder
	sb.WriteString(banner + "\n")
	sb.WriteString("PARLEY CONVERSATION\n")
	sb.WriteString(banner + "\n")
	sb.WriteString("Conversation ID: " + conversationID + "\n")
	sb.WriteString("Export Date: " + time.Now().Format("2006-01-02 15:04:05") + "\n")
	fmt.Fprintf(&sb, "Total Messages: %d\n", len(messages))
	sb.WriteString(banner + "\n\n")

	for i, msg := range messages {
		role := "ASSISTANT"
		if msg.Role == "user" {
			role = "USER"
		}
		fmt.Fprintf(&sb, "[%03d] %s [%s]:\n", i+1, role, messageTimestamp(msg.Timestamp))
		sb.WriteString(msg.Content + "\n")
		sb.WriteString(rule + "\n\n")
	}

	sb.WriteString(banner + "\n")
	sb.WriteString("End of Conversation\n")
	sb.WriteString(banner + "\n")

	return []byte(sb.String()), nil
}
