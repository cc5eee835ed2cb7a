// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/parley/internal/storage"
)

// WelcomeMessage greets the user when a session starts or is cleared.
const WelcomeMessage = "Hello! I'm your AI assistant. How can I help you today?"

// ContextWindow is how many trailing messages are sent to the model.
const ContextWindow = 10

// =============================================================================
// SESSION
// =============================================================================

// Session holds the mutable state of one chat session. All mutations are
// serialized behind a single mutex, so a session is safe for concurrent
// use from HTTP handlers.
type Session struct {
	mu sync.Mutex

	conversationID string
	startTime      time.Time
	messages       []storage.Message

	model        string
	isTyping     bool
	voiceEnabled bool
	autoSpeak    bool
	isDirty      bool
}

// New creates a session with a fresh conversation ID and the welcome
// message already appended.
func New(model string) *Session {
	now := time.Now()
	s := &Session{
		conversationID: storage.GenerateConversationID(now),
		startTime:      now,
		model:          model,
	}
	s.appendWelcome(now)
	return s
}

// Resume creates a session backed by a previously stored conversation.
func Resume(conv *storage.Conversation, model string) *Session {
	s := &Session{
		conversationID: conv.ID,
		startTime:      conv.CreatedAt,
		model:          model,
	}
	s.messages = append(s.messages, conv.Messages...)
	return s
}

func (s *Session) appendWelcome(now time.Time) {
	s.messages = append(s.messages, storage.Message{
		ID:        "welcome_001",
		Role:      "assistant",
		Content:   WelcomeMessage,
		Timestamp: now,
	})
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// Append adds a message to the session, filling in a message ID and
// timestamp, and returns the stored copy.
func (s *Session) Append(role, content string) storage.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := storage.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, msg)
	s.isDirty = true
	return msg
}

// Messages returns a copy of the full message list.
func (s *Session) Messages() []storage.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]storage.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// ContextMessage is one turn in the model context window.
type ContextMessage struct {
	Role    string
	Content string
}

// Context returns up to ContextWindow trailing messages shaped for the
// model API.
func (s *Session) Context() []ContextMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if len(s.messages) > ContextWindow {
		start = len(s.messages) - ContextWindow
	}

	out := make([]ContextMessage, 0, len(s.messages)-start)
	for _, msg := range s.messages[start:] {
		out = append(out, ContextMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// Clear resets the session to a fresh conversation: new ID, welcome
// message, typing flag off. Voice settings survive the reset.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.conversationID = storage.GenerateConversationID(now)
	s.startTime = now
	s.messages = nil
	s.appendWelcome(now)
	s.isTyping = false
	s.isDirty = false
}

// Snapshot returns the session as a storable conversation.
func (s *Session) Snapshot() *storage.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]storage.Message, len(s.messages))
	copy(msgs, s.messages)

	return &storage.Conversation{
		ID:        s.conversationID,
		Model:     s.model,
		CreatedAt: s.startTime,
		Messages:  msgs,
	}
}

// MarkClean records that the session has been persisted.
func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isDirty = false
}

// IsDirty reports whether the session has unsaved messages.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isDirty
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ConversationID returns the current conversation ID.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Model returns the current model name.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel updates the model used for new completions.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// SetTyping sets the typing-indicator flag.
func (s *Session) SetTyping(typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isTyping = typing
}

// IsTyping reports whether a completion is in flight.
func (s *Session) IsTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTyping
}

// SetVoiceEnabled toggles voice input.
func (s *Session) SetVoiceEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceEnabled = enabled
}

// VoiceEnabled reports whether voice input is on.
func (s *Session) VoiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceEnabled
}

// SetAutoSpeak toggles speaking assistant replies aloud.
func (s *Session) SetAutoSpeak(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSpeak = enabled
}

// AutoSpeak reports whether replies are spoken aloud.
func (s *Session) AutoSpeak() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoSpeak
}

// StartTime returns when the session started.
func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// Duration returns how long the session has been active.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// =============================================================================
// SESSION REGISTRY
// =============================================================================

// Registry tracks live sessions by conversation ID.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	defaultVoiceEnabled bool
	defaultAutoSpeak    bool
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// SetVoiceDefaults sets the voice state applied to sessions the registry
// creates. Existing sessions are not touched.
func (r *Registry) SetVoiceDefaults(voiceEnabled, autoSpeak bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultVoiceEnabled = voiceEnabled
	r.defaultAutoSpeak = autoSpeak
}

// Get returns the session for a conversation ID, or nil if absent.
func (r *Registry) Get(conversationID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[conversationID]
}

// GetOrCreate returns the session for a conversation ID, creating one
// when absent. An empty ID always creates a fresh session.
func (r *Registry) GetOrCreate(conversationID, model string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversationID != "" {
		if s, ok := r.sessions[conversationID]; ok {
			return s
		}
	}

	s := New(model)
	s.SetVoiceEnabled(r.defaultVoiceEnabled)
	s.SetAutoSpeak(r.defaultAutoSpeak)
	r.sessions[s.ConversationID()] = s
	return s
}

// Put registers a session under its conversation ID.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ConversationID()] = s
}

// Remove drops a session from the registry.
func (r *Registry) Remove(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conversationID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Range calls fn for each live session. The callback runs outside the
// registry lock, so it may call back into the registry.
func (r *Registry) Range(fn func(*Session)) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		fn(s)
	}
}
