// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds per-conversation chat state.
//
// A Session serializes every mutation behind one mutex: the message
// list, typing indicator, voice flags, and model selection. The Registry
// maps conversation IDs to live sessions for the HTTP layer.
package session
