// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// SESSION LIFECYCLE TESTS
// =============================================================================

func TestNew_WelcomeMessage(t *testing.T) {
	s := New("test-model")

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if msgs[0].Role != "assistant" || msgs[0].Content != WelcomeMessage {
		t.Errorf("welcome message wrong: %+v", msgs[0])
	}
	if msgs[0].ID != "welcome_001" {
		t.Errorf("welcome ID = %q", msgs[0].ID)
	}
	if !strings.HasPrefix(s.ConversationID(), "chat_") {
		t.Errorf("conversation ID = %q", s.ConversationID())
	}
	if s.IsDirty() {
		t.Error("fresh session should not be dirty")
	}
}

func TestAppend(t *testing.T) {
	s := New("test-model")

	msg := s.Append("user", "hello")
	if msg.ID == "" {
		t.Error("message ID not generated")
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
	if !s.IsDirty() {
		t.Error("session should be dirty after append")
	}
}

func TestClear(t *testing.T) {
	s := New("test-model")
	s.SetVoiceEnabled(true)
	s.SetTyping(true)
	s.Append("user", "hello")

	oldID := s.ConversationID()
	s.Clear()

	if s.ConversationID() == oldID {
		// IDs are second-granular; equal IDs are possible but the message
		// list must still be reset.
		t.Logf("conversation ID unchanged (same-second clear)")
	}
	if s.Len() != 1 {
		t.Errorf("len after clear = %d, want 1 (welcome only)", s.Len())
	}
	if s.IsTyping() {
		t.Error("typing flag should reset")
	}
	if !s.VoiceEnabled() {
		t.Error("voice setting should survive clear")
	}
	if s.IsDirty() {
		t.Error("cleared session should not be dirty")
	}
}

// =============================================================================
// CONTEXT WINDOW TESTS
// =============================================================================

func TestContext_WindowsLastTen(t *testing.T) {
	s := New("test-model")
	for i := 0; i < 15; i++ {
		s.Append("user", fmt.Sprintf("message %d", i))
	}

	ctx := s.Context()
	if len(ctx) != ContextWindow {
		t.Fatalf("context len = %d, want %d", len(ctx), ContextWindow)
	}
	if ctx[len(ctx)-1].Content != "message 14" {
		t.Errorf("last context message = %q", ctx[len(ctx)-1].Content)
	}
	if ctx[0].Content != "message 6" {
		t.Errorf("first context message = %q", ctx[0].Content)
	}
}

func TestContext_ShortSession(t *testing.T) {
	s := New("test-model")
	s.Append("user", "hi")

	ctx := s.Context()
	if len(ctx) != 2 {
		t.Errorf("context len = %d, want 2", len(ctx))
	}
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestSnapshot(t *testing.T) {
	s := New("test-model")
	s.Append("user", "persist me")

	conv := s.Snapshot()
	if conv.ID != s.ConversationID() {
		t.Errorf("snapshot ID = %q", conv.ID)
	}
	if conv.Model != "test-model" {
		t.Errorf("snapshot model = %q", conv.Model)
	}
	if len(conv.Messages) != 2 {
		t.Errorf("snapshot messages = %d", len(conv.Messages))
	}

	// The snapshot must be independent of later mutations.
	s.Append("user", "after snapshot")
	if len(conv.Messages) != 2 {
		t.Error("snapshot shares backing array with session")
	}
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestSession_ConcurrentAppends(t *testing.T) {
	s := New("test-model")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Append("user", fmt.Sprintf("msg %d", n))
			s.Context()
			s.SetTyping(n%2 == 0)
		}(i)
	}
	wg.Wait()

	if s.Len() != 51 {
		t.Errorf("len = %d, want 51", s.Len())
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	s := r.GetOrCreate("", "test-model")
	if s == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	if r.Len() != 1 {
		t.Errorf("registry len = %d, want 1", r.Len())
	}

	// Same ID returns the same session.
	again := r.GetOrCreate(s.ConversationID(), "other-model")
	if again != s {
		t.Error("GetOrCreate did not return the existing session")
	}
	if r.Len() != 1 {
		t.Errorf("registry len = %d, want 1", r.Len())
	}

	r.Remove(s.ConversationID())
	if r.Get(s.ConversationID()) != nil {
		t.Error("session not removed")
	}
}

func TestRegistry_VoiceDefaults(t *testing.T) {
	r := NewRegistry()

	plain := r.GetOrCreate("", "test-model")
	if plain.VoiceEnabled() || plain.AutoSpeak() {
		t.Error("voice flags should start off")
	}

	r.SetVoiceDefaults(true, true)
	seeded := r.GetOrCreate("", "test-model")
	if !seeded.VoiceEnabled() || !seeded.AutoSpeak() {
		t.Error("new session did not inherit voice defaults")
	}

	// Existing sessions keep their state.
	if plain.VoiceEnabled() || plain.AutoSpeak() {
		t.Error("defaults leaked into an existing session")
	}
}
