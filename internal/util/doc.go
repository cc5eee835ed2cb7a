// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the application.
//
// String helpers are rune- and width-aware so truncation never splits a
// multi-byte UTF-8 character or miscounts double-width CJK text.
// AtomicWriteFile gives crash-safe file writes with fsync.
package util
