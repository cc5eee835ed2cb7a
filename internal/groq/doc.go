// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package groq implements a client for the Groq OpenAI-compatible
// chat-completions API.
//
// The client is synchronous: one Chat call maps to one HTTP request, with
// bounded retries for transient failures and a token-bucket limiter on
// outgoing request rate. Errors carry a ClientError type code so callers
// can distinguish auth failures, rate limiting, and connection problems.
package groq
