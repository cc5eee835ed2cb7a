// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/parley/internal/storage"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders a conversation as pretty-printed JSON with an
// envelope of export metadata.
type JSONExporter struct{}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns "application/json".
func (e *JSONExporter) MimeType() string { return "application/json" }

type jsonEnvelope struct {
	ConversationID string            `json:"conversation_id"`
	ExportDate     string            `json:"export_date"`
	TotalMessages  int               `json:"total_messages"`
	Messages       []storage.Message `json:"messages"`
	Metadata       jsonMetadata      `json:"metadata"`
}

type jsonMetadata struct {
	UserMessages      int    `json:"user_messages"`
	AssistantMessages int    `json:"assistant_messages"`
	Duration          string `json:"conversation_duration"`
	ExportVersion     string `json:"export_version"`
}

// Export renders the conversation envelope.
func (e *JSONExporter) Export(messages []storage.Message, conversationID string) ([]byte, error) {
	userCount, assistantCount := 0, 0
	for _, msg := range messages {
		switch msg.Role {
		case "user":
			userCount++
		case "assistant":
			assistantCount++
		}
	}

	envelope := jsonEnvelope{
		ConversationID: conversationID,
		ExportDate:     time.Now().Format(time.RFC3339),
		TotalMessages:  len(messages),
		Messages:       messages,
		Metadata: jsonMetadata{
			UserMessages:      userCount,
			AssistantMessages: assistantCount,
			Duration:          calculateDuration(messages),
			ExportVersion:     "1.0",
		},
	}
	if envelope.Messages == nil {
		envelope.Messages = []storage.Message{}
	}

	return json.MarshalIndent(envelope, "", "  ")
}
