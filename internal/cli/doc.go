// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements argument parsing and command handlers for the
// parley command line.
//
// Commands:
//   - serve                 - Run the HTTP API server (default)
//   - list                  - List stored conversations
//   - show <id>             - Render a conversation in the terminal
//   - export <id>           - Write a conversation to a file
//   - version               - Print version information
//   - help                  - Print usage
//
// Handlers always return errors rather than exiting; main maps them to
// exit codes via GetExitCode.
package cli
