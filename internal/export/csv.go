// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/parley/internal/storage"
)

// =============================================================================
// CSV EXPORTER
// =============================================================================

// CSVExporter renders a conversation as CSV, one row per message with
// per-message word and character counts.
type CSVExporter struct{}

// FileExtension returns ".csv".
func (e *CSVExporter) FileExtension() string { return ".csv" }

// MimeType returns "text/csv".
func (e *CSVExporter) MimeType() string { return "text/csv" }

// Export renders the conversation rows.
func (e *CSVExporter) Export(messages []storage.Message, conversationID string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Message_ID", "Role", "Content", "Timestamp",
		"Word_Count", "Character_Count", "Conversation_ID",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i, msg := range messages {
		id := msg.ID
		if id == "" {
			id = fmt.Sprintf("msg_%d", i+1)
		}
		row := []string{
			id,
			msg.Role,
			msg.Content,
			messageTimestamp(msg.Timestamp),
			strconv.Itoa(len(strings.Fields(msg.Content))),
			strconv.Itoa(len([]rune(msg.Content))),
			conversationID,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
