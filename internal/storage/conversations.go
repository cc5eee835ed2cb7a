// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// STORED CONVERSATION TYPES
// =============================================================================

// Conversation represents a persisted conversation.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Title     string    `json:"title"`
	Model     string    `json:"model_used,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `json:"messages"`
}

// Message represents a persisted message.
type Message struct {
	ID        string    `json:"message_id"`
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationMeta contains metadata for listing conversations.
// Preview is only populated by Search: the first matching message
// content, truncated.
type ConversationMeta struct {
	ID           string    `json:"conversation_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model_used,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a conversation and all its messages, replacing any prior
// version. Missing IDs and timestamps are filled in. Returns the
// conversation ID.
func (s *Store) Save(conv *Conversation) (string, error) {
	if conv == nil {
		return "", errors.New("conversation cannot be nil")
	}

	if conv.ID == "" {
		conv.ID = GenerateConversationID(time.Now())
	}
	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}
	if conv.Title == "" {
		conv.Title = generateTitle(conv.Messages)
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == "" {
			conv.Messages[i].ID = uuid.NewString()
		}
		if conv.Messages[i].Timestamp.IsZero() {
			conv.Messages[i].Timestamp = conv.UpdatedAt
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conversations (conversation_id, title, created_at, updated_at, message_count, model_used)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (conversation_id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			message_count = excluded.message_count,
			model_used = excluded.model_used`,
		conv.ID, conv.Title, conv.CreatedAt, conv.UpdatedAt, len(conv.Messages), conv.Model)
	if err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}

	// Replace the full message set so the stored copy matches the
	// in-memory conversation exactly.
	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return "", fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (conversation_id, message_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, msg := range conv.Messages {
		if _, err := stmt.Exec(conv.ID, msg.ID, msg.Role, msg.Content, msg.Timestamp); err != nil {
			return "", fmt.Errorf("failed to save message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return conv.ID, nil
}

// generateTitle creates a title from the first user message.
func generateTitle(messages []Message) string {
	for _, msg := range messages {
		if msg.Role == "user" && msg.Content != "" {
			title := strings.ReplaceAll(msg.Content, "\n", " ")
			title = strings.ReplaceAll(title, "\r", "")
			// Rune-based truncation for Unicode safety
			runes := []rune(title)
			if len(runes) > 50 {
				title = string(runes[:47]) + "..."
			}
			return title
		}
	}
	return "New conversation"
}

// GenerateConversationID creates a timestamped conversation ID.
func GenerateConversationID(t time.Time) string {
	return "chat_" + t.Format("20060102_150405")
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation and its messages by ID.
func (s *Store) Load(id string) (*Conversation, error) {
	conv := &Conversation{ID: id}

	err := s.db.QueryRow(`
		SELECT title, created_at, updated_at, COALESCE(model_used, '')
		FROM conversations WHERE conversation_id = ?`, id).
		Scan(&conv.Title, &conv.CreatedAt, &conv.UpdatedAt, &conv.Model)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT message_id, role, content, timestamp
		FROM messages WHERE conversation_id = ?
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		conv.Messages = append(conv.Messages, msg)
	}

	return conv, rows.Err()
}

// Info retrieves conversation metadata without loading messages.
func (s *Store) Info(id string) (*ConversationMeta, error) {
	meta := &ConversationMeta{ID: id}

	err := s.db.QueryRow(`
		SELECT title, created_at, updated_at, message_count, COALESCE(model_used, '')
		FROM conversations WHERE conversation_id = ?`, id).
		Scan(&meta.Title, &meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount, &meta.Model)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation info: %w", err)
	}

	return meta, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns conversation metadata, most recently updated first.
// A limit of 0 means no limit.
func (s *Store) List(limit int) ([]ConversationMeta, error) {
	query := `
		SELECT conversation_id, title, created_at, updated_at, message_count, COALESCE(model_used, '')
		FROM conversations ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	return scanMetas(rows)
}

// previewRunes is how much matched content a search result carries.
const previewRunes = 100

// Search finds conversations whose title or message content matches the
// query (case-insensitive substring), most recently updated first. Each
// result carries a preview of the first matching message, truncated to
// previewRunes. A limit of 0 means no limit.
func (s *Store) Search(query string, limit int) ([]ConversationMeta, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(limit)
	}

	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT c.conversation_id, c.title, c.created_at, c.updated_at, c.message_count, COALESCE(c.model_used, ''),
		       COALESCE((
		           SELECT m.content FROM messages m
		           WHERE m.conversation_id = c.conversation_id AND m.content LIKE ? COLLATE NOCASE
		           ORDER BY m.id LIMIT 1
		       ), '')
		FROM conversations c
		WHERE c.title LIKE ? COLLATE NOCASE
		   OR EXISTS (
		       SELECT 1 FROM messages m
		       WHERE m.conversation_id = c.conversation_id AND m.content LIKE ? COLLATE NOCASE
		   )
		ORDER BY c.updated_at DESC`
	args := []any{pattern, pattern, pattern}
	if limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search conversations: %w", err)
	}
	defer rows.Close()

	var metas []ConversationMeta
	for rows.Next() {
		var meta ConversationMeta
		var content string
		err := rows.Scan(&meta.ID, &meta.Title, &meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount, &meta.Model, &content)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if util.RuneLen(content) > previewRunes {
			content = util.TruncateRunesNoEllipsis(content, previewRunes) + "..."
		}
		meta.Preview = content
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func scanMetas(rows *sql.Rows) ([]ConversationMeta, error) {
	var metas []ConversationMeta
	for rows.Next() {
		var meta ConversationMeta
		err := rows.Scan(&meta.ID, &meta.Title, &meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount, &meta.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation and its messages by ID.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM conversations WHERE conversation_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConversationNotFound
	}

	return tx.Commit()
}
