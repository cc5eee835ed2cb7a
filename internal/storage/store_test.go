// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "chats.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleConversation(id string) *Conversation {
	return &Conversation{
		ID:    id,
		Model: "test-model",
		Messages: []Message{
			{Role: "user", Content: "How do I sort a slice in Go?"},
			{Role: "assistant", Content: "Use sort.Slice with a less function."},
		},
	}
}

// =============================================================================
// SAVE AND LOAD TESTS
// =============================================================================

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(sampleConversation("chat_20250101_120000"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id != "chat_20250101_120000" {
		t.Errorf("id = %q", id)
	}

	conv, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Role != "user" || conv.Messages[1].Role != "assistant" {
		t.Error("message order not preserved")
	}
	if conv.Model != "test-model" {
		t.Errorf("model = %q", conv.Model)
	}
	if conv.Title != "How do I sort a slice in Go?" {
		t.Errorf("title = %q", conv.Title)
	}
	for _, msg := range conv.Messages {
		if msg.ID == "" {
			t.Error("message ID not generated")
		}
		if msg.Timestamp.IsZero() {
			t.Error("message timestamp not set")
		}
	}
}

func TestSave_GeneratesID(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(&Conversation{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(id, "chat_") {
		t.Errorf("generated id = %q, want chat_ prefix", id)
	}
}

func TestSave_ReplacesMessages(t *testing.T) {
	store := newTestStore(t)

	conv := sampleConversation("chat_a")
	if _, err := store.Save(conv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	conv.Messages = append(conv.Messages, Message{Role: "user", Content: "And stable sort?"})
	if _, err := store.Save(conv); err != nil {
		t.Fatalf("re-Save failed: %v", err)
	}

	loaded, err := store.Load("chat_a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Messages) != 3 {
		t.Errorf("messages = %d, want 3 (no duplicates)", len(loaded.Messages))
	}

	meta, err := store.Info("chat_a")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if meta.MessageCount != 3 {
		t.Errorf("message_count = %d, want 3", meta.MessageCount)
	}
}

func TestTitleTruncation(t *testing.T) {
	store := newTestStore(t)

	long := strings.Repeat("é", 60)
	id, err := store.Save(&Conversation{Messages: []Message{{Role: "user", Content: long}}})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	conv, _ := store.Load(id)
	runes := []rune(conv.Title)
	if len(runes) != 50 {
		t.Errorf("title rune length = %d, want 50", len(runes))
	}
	if !strings.HasSuffix(conv.Title, "...") {
		t.Errorf("title = %q, want ... suffix", conv.Title)
	}
}

func TestLoad_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("chat_missing")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

// =============================================================================
// LIST AND SEARCH TESTS
// =============================================================================

func TestList_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)

	store.Save(&Conversation{
		ID:        "chat_old",
		CreatedAt: time.Now().Add(-time.Hour),
		Messages:  []Message{{Role: "user", Content: "old"}},
	})
	time.Sleep(5 * time.Millisecond)
	store.Save(&Conversation{
		ID:       "chat_new",
		Messages: []Message{{Role: "user", Content: "new"}},
	})

	metas, err := store.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("count = %d, want 2", len(metas))
	}
	if metas[0].ID != "chat_new" {
		t.Errorf("first = %q, want chat_new", metas[0].ID)
	}

	limited, err := store.List(1)
	if err != nil {
		t.Fatalf("List(1) failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited count = %d, want 1", len(limited))
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)

	store.Save(&Conversation{
		ID:       "chat_go",
		Messages: []Message{{Role: "user", Content: "Explain goroutines please"}},
	})
	store.Save(&Conversation{
		ID:       "chat_py",
		Messages: []Message{{Role: "user", Content: "Explain decorators"}},
	})

	results, err := store.Search("GOROUTINES", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "chat_go" {
		t.Errorf("results = %+v, want only chat_go", results)
	}
	if results[0].Preview != "Explain goroutines please" {
		t.Errorf("preview = %q", results[0].Preview)
	}

	// Empty query lists everything.
	all, err := store.Search("  ", 0)
	if err != nil {
		t.Fatalf("Search empty failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty-query count = %d, want 2", len(all))
	}
}

func TestSearch_LimitAndPreviewTruncation(t *testing.T) {
	store := newTestStore(t)

	long := "needle " + strings.Repeat("x", 200)
	store.Save(&Conversation{
		ID:       "chat_long",
		Messages: []Message{{Role: "user", Content: long}},
	})
	time.Sleep(5 * time.Millisecond)
	store.Save(&Conversation{
		ID:       "chat_short",
		Messages: []Message{{Role: "user", Content: "needle here"}},
	})

	limited, err := store.Search("needle", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("count = %d, want 1", len(limited))
	}
	if limited[0].ID != "chat_short" {
		t.Errorf("first = %q, want most recently updated", limited[0].ID)
	}

	all, err := store.Search("needle", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("count = %d, want 2", len(all))
	}
	for _, meta := range all {
		if meta.ID != "chat_long" {
			continue
		}
		runes := []rune(meta.Preview)
		if len(runes) != 103 {
			t.Errorf("preview rune length = %d, want 100 + ellipsis", len(runes))
		}
		if !strings.HasSuffix(meta.Preview, "...") {
			t.Errorf("preview = %q, want ... suffix", meta.Preview)
		}
	}
}

// =============================================================================
// DELETE AND CLEANUP TESTS
// =============================================================================

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	store.Save(sampleConversation("chat_del"))
	if err := store.Delete("chat_del"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Load("chat_del"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Load after delete: err = %v", err)
	}
	if err := store.Delete("chat_del"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("second Delete: err = %v", err)
	}
}

func TestCleanupOlderThan(t *testing.T) {
	store := newTestStore(t)

	store.Save(sampleConversation("chat_keep"))

	// Backdate one conversation past the cutoff.
	store.Save(sampleConversation("chat_stale"))
	old := time.Now().Add(-48 * time.Hour)
	if _, err := store.db.Exec(`UPDATE conversations SET updated_at = ? WHERE conversation_id = ?`, old, "chat_stale"); err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	removed, err := store.CleanupOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := store.Load("chat_keep"); err != nil {
		t.Errorf("chat_keep should survive: %v", err)
	}
	if _, err := store.Load("chat_stale"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("chat_stale should be gone: err = %v", err)
	}
}

// =============================================================================
// STATS TESTS
// =============================================================================

func TestGetStats(t *testing.T) {
	store := newTestStore(t)

	store.Save(sampleConversation("chat_1"))
	store.Save(sampleConversation("chat_2"))

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalConversations != 2 {
		t.Errorf("conversations = %d, want 2", stats.TotalConversations)
	}
	if stats.TotalMessages != 4 {
		t.Errorf("messages = %d, want 4", stats.TotalMessages)
	}
	if stats.AvgMessages != 2.0 {
		t.Errorf("avg messages = %g, want 2", stats.AvgMessages)
	}
	if stats.MostActiveDay != time.Now().Format("2006-01-02") {
		t.Errorf("most active day = %q", stats.MostActiveDay)
	}
	if stats.ModelUsage["test-model"] != 2 {
		t.Errorf("model usage = %+v, want test-model: 2", stats.ModelUsage)
	}
	if stats.DatabaseSizeBytes == 0 {
		t.Error("database size not reported")
	}
}

func TestGetStats_Empty(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.AvgMessages != 0 {
		t.Errorf("avg messages = %g, want 0", stats.AvgMessages)
	}
	if stats.MostActiveDay != "" {
		t.Errorf("most active day = %q, want empty", stats.MostActiveDay)
	}
	if len(stats.ModelUsage) != 0 {
		t.Errorf("model usage = %+v, want empty", stats.ModelUsage)
	}
}

func TestGenerateConversationID(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := GenerateConversationID(ts); got != "chat_20250314_092653" {
		t.Errorf("id = %q", got)
	}
}
