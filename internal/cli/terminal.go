// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"golang.org/x/term"
)

// defaultWidth is used when stdout is not a terminal or the size probe
// fails.
const defaultWidth = 80

// IsStdoutTTY returns true if stdout is a terminal.
// Used to decide whether to render markdown or emit plain text.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the terminal width in columns, capped so
// rendered markdown stays readable on very wide terminals.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	if width > 120 {
		return 120
	}
	return width
}
