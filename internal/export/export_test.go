// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/parley/internal/storage"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func sampleMessages() []storage.Message {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []storage.Message{
		{ID: "m1", Role: "user", Content: "What is a channel?", Timestamp: base},
		{ID: "m2", Role: "assistant", Content: "A typed conduit for <goroutine> communication.", Timestamp: base.Add(25 * time.Minute)},
	}
}

// =============================================================================
// FORMAT DISPATCH TESTS
// =============================================================================

func TestExport_UnsupportedFormat(t *testing.T) {
	_, _, err := Export(sampleMessages(), "docx", "chat_x")
	var unsupported *ErrUnsupportedFormat
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if unsupported.Format != "docx" {
		t.Errorf("format = %q", unsupported.Format)
	}
}

func TestExport_PDFDegradesToHTML(t *testing.T) {
	payload, mime, err := Export(sampleMessages(), "pdf", "chat_x")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if mime != "text/html" {
		t.Errorf("mime = %q, want text/html", mime)
	}
	if !strings.Contains(string(payload), "<!DOCTYPE html>") {
		t.Error("payload is not HTML")
	}
}

// =============================================================================
// TEXT FORMAT TESTS
// =============================================================================

func TestTextExport(t *testing.T) {
	payload, mime, err := Export(sampleMessages(), "txt", "chat_txt")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if mime != "text/plain" {
		t.Errorf("mime = %q", mime)
	}

	out := string(payload)
	for _, want := range []string{
		"PARLEY CONVERSATION",
		"Conversation ID: chat_txt",
		"Total Messages: 2",
		"[001] USER [10:00:00]:",
		"[002] ASSISTANT [10:25:00]:",
		"End of Conversation",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// =============================================================================
// JSON FORMAT TESTS
// =============================================================================

func TestJSONExport(t *testing.T) {
	payload, mime, err := Export(sampleMessages(), "json", "chat_json")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if mime != "application/json" {
		t.Errorf("mime = %q", mime)
	}

	var envelope struct {
		ConversationID string            `json:"conversation_id"`
		TotalMessages  int               `json:"total_messages"`
		Messages       []storage.Message `json:"messages"`
		Metadata       struct {
			UserMessages      int    `json:"user_messages"`
			AssistantMessages int    `json:"assistant_messages"`
			Duration          string `json:"conversation_duration"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if envelope.ConversationID != "chat_json" {
		t.Errorf("conversation_id = %q", envelope.ConversationID)
	}
	if envelope.TotalMessages != 2 || len(envelope.Messages) != 2 {
		t.Errorf("message counts wrong: %d / %d", envelope.TotalMessages, len(envelope.Messages))
	}
	if envelope.Metadata.UserMessages != 1 || envelope.Metadata.AssistantMessages != 1 {
		t.Errorf("role counts = %d/%d", envelope.Metadata.UserMessages, envelope.Metadata.AssistantMessages)
	}
	if envelope.Metadata.Duration != "25m" {
		t.Errorf("duration = %q, want 25m", envelope.Metadata.Duration)
	}
}

// =============================================================================
// CSV FORMAT TESTS
// =============================================================================

func TestCSVExport(t *testing.T) {
	payload, mime, err := Export(sampleMessages(), "csv", "chat_csv")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if mime != "text/csv" {
		t.Errorf("mime = %q", mime)
	}

	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if records[0][0] != "Message_ID" || records[0][6] != "Conversation_ID" {
		t.Errorf("header = %v", records[0])
	}

	// "What is a channel?" is 4 words, 18 characters.
	if records[1][4] != "4" {
		t.Errorf("word count = %q, want 4", records[1][4])
	}
	if records[1][5] != "18" {
		t.Errorf("char count = %q, want 18", records[1][5])
	}
	if records[1][6] != "chat_csv" {
		t.Errorf("conversation id column = %q", records[1][6])
	}
}

// =============================================================================
// HTML FORMAT TESTS
// =============================================================================

func TestHTMLExport_EscapesContent(t *testing.T) {
	payload, _, err := Export(sampleMessages(), "html", "chat_html")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	out := string(payload)
	if strings.Contains(out, "<goroutine>") {
		t.Error("message content not escaped")
	}
	if !strings.Contains(out, "&lt;goroutine&gt;") {
		t.Error("escaped content missing")
	}
	if !strings.Contains(out, `<div class="role">You</div>`) {
		t.Error("user role label missing")
	}
	if !strings.Contains(out, "<strong>Total Messages:</strong> 2") {
		t.Error("stats block missing")
	}
}

func TestRoleLabel(t *testing.T) {
	if got := roleLabel("system"); got != "System" {
		t.Errorf("roleLabel(system) = %q", got)
	}
}

// =============================================================================
// DURATION TESTS
// =============================================================================

func TestCalculateDuration(t *testing.T) {
	at := func(h, m int) storage.Message {
		return storage.Message{Timestamp: time.Date(2025, 6, 1, h, m, 0, 0, time.UTC)}
	}

	tests := []struct {
		name     string
		messages []storage.Message
		want     string
	}{
		{"single message", []storage.Message{at(10, 0)}, "N/A"},
		{"minutes only", []storage.Message{at(10, 0), at(10, 42)}, "42m"},
		{"hours and minutes", []storage.Message{at(9, 15), at(11, 20)}, "2h 5m"},
		{"midnight rollover", []storage.Message{at(23, 50), at(0, 10)}, "20m"},
		{"zero timestamps", []storage.Message{{}, {}}, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateDuration(tt.messages); got != tt.want {
				t.Errorf("duration = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// FILE EXPORT TESTS
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()

	path, err := ExportToFile(sampleMessages(), "txt", "chat with/slash", dir)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	if !strings.HasSuffix(path, ".txt") {
		t.Errorf("path = %q, want .txt suffix", path)
	}
	if strings.Contains(path[len(dir):], "/slash") {
		t.Errorf("path %q not sanitized", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported file: %v", err)
	}
	if !strings.Contains(string(data), "PARLEY CONVERSATION") {
		t.Error("exported file missing banner")
	}
}

// =============================================================================
// SUMMARY TESTS
// =============================================================================

func TestSummarize(t *testing.T) {
	s := Summarize(sampleMessages())

	if s.TotalMessages != 2 || s.UserMessages != 1 || s.AssistantMessages != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Duration != "25m" {
		t.Errorf("duration = %q", s.Duration)
	}
	if s.TotalWords == 0 || s.TotalCharacters == 0 {
		t.Error("word/char totals not computed")
	}

	empty := Summarize(nil)
	if empty.Duration != "N/A" {
		t.Errorf("empty duration = %q", empty.Duration)
	}
}
