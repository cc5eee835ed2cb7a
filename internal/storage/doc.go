// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations and their messages in SQLite.
//
// The store keeps two tables: one row per conversation with denormalized
// metadata (title, model, message count, timestamps), and one row per
// message keyed by conversation ID. Saves are transactional and replace
// the full message set, so the database always reflects the latest
// snapshot of a conversation.
package storage
