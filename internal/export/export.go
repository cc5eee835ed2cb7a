// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export renders the messages of a conversation to the target format.
	Export(messages []storage.Message, conversationID string) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".txt").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// SupportedFormats lists the accepted format names.
var SupportedFormats = []string{"txt", "json", "csv", "html", "pdf"}

// ErrUnsupportedFormat is returned for unknown format names.
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return "unsupported export format: " + e.Format
}

// forFormat returns the exporter for a format name.
func forFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "txt":
		return &TextExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "csv":
		return &CSVExporter{}, nil
	case "html":
		return &HTMLExporter{}, nil
	case "pdf":
		// No native PDF renderer; serve the HTML payload instead.
		return &HTMLExporter{}, nil
	default:
		return nil, &ErrUnsupportedFormat{Format: format}
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Export renders messages in the named format and returns the payload
// with its MIME type.
func Export(messages []storage.Message, format, conversationID string) ([]byte, string, error) {
	exporter, err := forFormat(format)
	if err != nil {
		return nil, "", err
	}

	payload, err := exporter.Export(messages, conversationID)
	if err != nil {
		return nil, "", fmt.Errorf("export failed: %w", err)
	}

	return payload, exporter.MimeType(), nil
}

// ExportToFile exports a conversation to a file in outputDir and returns
// the output path. The file is written atomically.
func ExportToFile(messages []storage.Message, format, conversationID, outputDir string) (string, error) {
	exporter, err := forFormat(format)
	if err != nil {
		return "", err
	}

	payload, err := exporter.Export(messages, conversationID)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s",
		sanitizeFilename(conversationID),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	outputPath := filepath.Join(outputDir, filename)
	if err := util.AtomicWriteFile(outputPath, payload, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}

// =============================================================================
// CONVERSATION STATISTICS
// =============================================================================

// Summary holds aggregate statistics for a conversation.
type Summary struct {
	TotalMessages       int     `json:"total_messages"`
	UserMessages        int     `json:"user_messages"`
	AssistantMessages   int     `json:"assistant_messages"`
	TotalWords          int     `json:"total_words"`
	TotalCharacters     int     `json:"total_characters"`
	AvgWordsPerMessage  float64 `json:"avg_words_per_message"`
	Duration            string  `json:"conversation_duration"`
	FirstMessageTime    string  `json:"first_message_time"`
	LastMessageTime     string  `json:"last_message_time"`
}

// Summarize computes conversation statistics.
func Summarize(messages []storage.Message) *Summary {
	if len(messages) == 0 {
		return &Summary{Duration: "N/A", FirstMessageTime: "N/A", LastMessageTime: "N/A"}
	}

	s := &Summary{
		TotalMessages:    len(messages),
		Duration:         calculateDuration(messages),
		FirstMessageTime: formatTimestamp(messages[0].Timestamp),
		LastMessageTime:  formatTimestamp(messages[len(messages)-1].Timestamp),
	}

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			s.UserMessages++
		case "assistant":
			s.AssistantMessages++
		}
		s.TotalWords += len(strings.Fields(msg.Content))
		s.TotalCharacters += len([]rune(msg.Content))
	}
	s.AvgWordsPerMessage = float64(s.TotalWords) / float64(len(messages))

	return s
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// calculateDuration reports the wall-clock span between the first and
// last message as "Xh Ym" or "Ym". Spans that cross midnight roll over.
func calculateDuration(messages []storage.Message) string {
	if len(messages) < 2 {
		return "N/A"
	}

	first := messages[0].Timestamp
	last := messages[len(messages)-1].Timestamp
	if first.IsZero() || last.IsZero() {
		return "N/A"
	}

	firstMinutes := first.Hour()*60 + first.Minute()
	lastMinutes := last.Hour()*60 + last.Minute()

	duration := lastMinutes - firstMinutes
	if duration < 0 {
		duration += 24 * 60
	}

	hours := duration / 60
	minutes := duration % 60
	if hours > 0 {
		return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	}
	return strconv.Itoa(minutes) + "m"
}

// formatTimestamp formats a timestamp for display, "N/A" when unset.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02 15:04:05")
}

// messageTimestamp formats a per-message timestamp, "N/A" when unset.
func messageTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("15:04:05")
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		s = string(runes[:50])
	}

	var sb strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			sb.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			sb.WriteRune('_')
		case r < 32 || r == 127:
			sb.WriteRune('-')
		default:
			sb.WriteRune(r)
		}
	}

	if sb.Len() == 0 {
		return "conversation"
	}
	return sb.String()
}
