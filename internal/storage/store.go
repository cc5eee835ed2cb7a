// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// STORE
// =============================================================================

// Store handles conversation persistence in a SQLite database.
// It is safe for concurrent use; SQLite serializes writers, so the
// connection pool is capped at a single connection.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the default database location (~/.parley/chats.db).
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".parley", "chats.db"), nil
}

// Open opens (creating if necessary) the conversation database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates tables and indexes if they do not exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		message_count INTEGER DEFAULT 0,
		model_used TEXT
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations (conversation_id)
			ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages (conversation_id);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated
		ON conversations (updated_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats summarizes the stored data.
type Stats struct {
	TotalConversations int            `json:"total_conversations"`
	TotalMessages      int            `json:"total_messages"`
	AvgMessages        float64        `json:"avg_messages_per_conversation"`
	MostActiveDay      string         `json:"most_active_day,omitempty"`
	ModelUsage         map[string]int `json:"model_usage"`
	OldestConversation time.Time      `json:"oldest_conversation,omitempty"`
	NewestConversation time.Time      `json:"newest_conversation,omitempty"`
	DatabaseSizeBytes  int64          `json:"database_size_bytes"`
}

// GetStats returns aggregate statistics about the database.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{ModelUsage: make(map[string]int)}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&stats.TotalConversations); err != nil {
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	// Rounded to two decimals; the denominator never drops below one so
	// an empty database reports zero.
	denom := stats.TotalConversations
	if denom < 1 {
		denom = 1
	}
	stats.AvgMessages = math.Round(float64(stats.TotalMessages)/float64(denom)*100) / 100

	err := s.db.QueryRow(`
		SELECT DATE(created_at) FROM conversations
		GROUP BY DATE(created_at)
		ORDER BY COUNT(*) DESC
		LIMIT 1`).Scan(&stats.MostActiveDay)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read most active day: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT model_used, COUNT(*) FROM conversations
		WHERE model_used IS NOT NULL AND model_used != ''
		GROUP BY model_used
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read model usage: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var model string
		var count int
		if err := rows.Scan(&model, &count); err != nil {
			return nil, fmt.Errorf("failed to scan model usage: %w", err)
		}
		stats.ModelUsage[model] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model usage: %w", err)
	}

	if stats.TotalConversations > 0 {
		var oldest, newest time.Time
		err := s.db.QueryRow(`SELECT MIN(created_at), MAX(created_at) FROM conversations`).Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("failed to read date range: %w", err)
		}
		stats.OldestConversation = oldest
		stats.NewestConversation = newest
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.DatabaseSizeBytes = info.Size()
	}

	return stats, nil
}

// =============================================================================
// CLEANUP
// =============================================================================

// CleanupOlderThan deletes conversations last updated before the cutoff
// and returns the number removed. Message rows go with them via the
// cascading foreign key.
func (s *Store) CleanupOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Cascade does not fire for bulk DELETE on some drivers, so remove
	// messages explicitly first.
	_, err = tx.Exec(`
		DELETE FROM messages WHERE conversation_id IN (
			SELECT conversation_id FROM conversations WHERE updated_at < ?
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old messages: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM conversations WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old conversations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	n, _ := res.RowsAffected()
	return int(n), nil
}
