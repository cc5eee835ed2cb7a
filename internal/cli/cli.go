// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for parley.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdServe Command = iota
	CmdList
	CmdShow
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool // Output in JSON format
	Model   string

	// Command-specific
	ConversationID string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --format, --limit)
	Options map[string]string
}

const usageText = `parley - AI chat assistant with response post-processing

Parley is a chat assistant backed by the Groq API.

It provides:
  - An HTTP API for chat, conversation management, and export
  - Response post-processing (cleanup, sentiment, action items, key points)
  - SQLite conversation history with search
  - Export to txt, json, csv, and html

Usage:
  parley                     Run the HTTP server (default)
  parley serve               Run the HTTP server
  parley list                List stored conversations
  parley show <id>           Render a conversation in the terminal
  parley export <id>         Write a conversation to a file
  parley version             Print version information
  parley help                Print this help

Serve Options:
  --host HOST                Bind address (default: 127.0.0.1)
  --port N                   Listen port (default: 8741)

List Options:
  --limit N                  Show at most N conversations (default: 20)
  --search QUERY             Filter by title or content
  --json                     Output in JSON format

Export Options:
  --format FMT               txt, json, csv, html, or pdf (default: txt)
  --output DIR               Output directory (default: from config)

Global Flags:
  -q, --quiet                Minimal output
  -v, --verbose              Debug output
  --model NAME               Override the default model
  --json                     Output in JSON format

Environment:
  GROQ_API_KEY               Groq API key (required for chat)
  PARLEY_MODEL               Default model override
  PARLEY_DB                  SQLite database path
  PARLEY_PORT                Server port

Examples:
  parley serve --port 9000
  parley list --search "rust"
  parley show chat_20250115_143022
  parley export chat_20250115_143022 --format html

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("parley version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to serving
	if len(remaining) == 0 {
		return CmdServe, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "serve", "server":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "list", "ls", "l":
		parseListArgs(&parsedArgs, remaining)
		return CmdList, parsedArgs

	case "show", "view":
		parseShowArgs(&parsedArgs, remaining)
		return CmdShow, parsedArgs

	case "export":
		parseExportArgs(&parsedArgs, remaining)
		return CmdExport, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		parsedArgs.Raw = nil
		return CmdHelp, parsedArgs

	default:
		// Unknown command - show help rather than guessing
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "--host":
			if i+1 < len(remaining) {
				i++
				args.Options["host"] = remaining[i]
			}
		case "--port", "-p":
			if i+1 < len(remaining) {
				i++
				args.Options["port"] = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--host=") {
				args.Options["host"] = strings.TrimPrefix(arg, "--host=")
			} else if strings.HasPrefix(arg, "--port=") {
				args.Options["port"] = strings.TrimPrefix(arg, "--port=")
			}
		}
	}
}

// parseListArgs parses list command specific arguments.
func parseListArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "--limit", "-n":
			if i+1 < len(remaining) {
				i++
				args.Options["limit"] = remaining[i]
			}
		case "--search", "-s":
			if i+1 < len(remaining) {
				i++
				args.Options["search"] = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--limit=") {
				args.Options["limit"] = strings.TrimPrefix(arg, "--limit=")
			} else if strings.HasPrefix(arg, "--search=") {
				args.Options["search"] = strings.TrimPrefix(arg, "--search=")
			}
		}
	}
}

// parseShowArgs parses show command specific arguments.
func parseShowArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		if !strings.HasPrefix(arg, "-") && args.ConversationID == "" {
			args.ConversationID = arg
		}
	}
}

// parseExportArgs parses export command specific arguments.
func parseExportArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "--format", "-f":
			if i+1 < len(remaining) {
				i++
				args.Options["format"] = remaining[i]
			}
		case "--output", "-o":
			if i+1 < len(remaining) {
				i++
				args.Options["output"] = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--format=") {
				args.Options["format"] = strings.TrimPrefix(arg, "--format=")
			} else if strings.HasPrefix(arg, "--output=") {
				args.Options["output"] = strings.TrimPrefix(arg, "--output=")
			} else if !strings.HasPrefix(arg, "-") && args.ConversationID == "" {
				args.ConversationID = arg
			}
		}
	}
}

// optionInt reads an integer option, falling back to def when absent or
// malformed.
func optionInt(args Args, key string, def int) int {
	v, ok := args.Options[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
