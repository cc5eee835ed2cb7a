// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP API for chat, conversation management,
// and export.
//
// Endpoints:
//   - POST   /api/chat                        - Send a message, get the processed reply
//   - GET    /api/conversations               - List or search stored conversations
//   - GET    /api/conversations/{id}          - Fetch one conversation with messages
//   - DELETE /api/conversations/{id}          - Delete a stored conversation
//   - POST   /api/conversations/{id}/save     - Persist a live session
//   - GET    /api/conversations/{id}/export   - Download in txt/json/csv/html/pdf
//   - POST   /api/conversations/{id}/voice    - Toggle voice settings for a session
//   - POST   /api/conversations/{id}/listen   - Record speech into a user message
//   - GET    /health                          - Health check
//   - GET    /stats                           - Usage statistics
//
// A model failure never fails the chat endpoint: the error is delivered as
// an assistant message prefixed with "Error: " so the conversation keeps
// its shape.
package server
