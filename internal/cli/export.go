// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - Conversation file export command.
package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/parley/internal/export"
	"github.com/jeranaias/parley/internal/storage"
)

// HandleExport writes one conversation to a file in the requested format.
func HandleExport(args Args) error {
	if args.ConversationID == "" {
		return ErrMissingArgument("conversation id", "parley export chat_20250115_143022 --format html")
	}

	format := args.Options["format"]
	if format == "" {
		format = "txt"
	}

	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	conv, err := store.Load(args.ConversationID)
	if err != nil {
		if errors.Is(err, storage.ErrConversationNotFound) {
			return ErrNotFound("conversation", args.ConversationID)
		}
		return NewCommandError("export", "could not load conversation", err)
	}

	outputDir := cfg.Export.OutputDir
	if dir, ok := args.Options["output"]; ok && dir != "" {
		outputDir = dir
	}

	path, err := export.ExportToFile(conv.Messages, format, conv.ID, outputDir)
	if err != nil {
		var unsupported *export.ErrUnsupportedFormat
		if errors.As(err, &unsupported) {
			return &ValidationError{
				Field:   "format",
				Value:   format,
				Reason:  "unsupported format",
				Example: fmt.Sprintf("supported formats: %v", export.SupportedFormats),
			}
		}
		return NewCommandError("export", "could not export conversation", err)
	}

	if args.Quiet {
		fmt.Println(path)
	} else {
		summary := export.Summarize(conv.Messages)
		fmt.Printf("Exported %s (%d messages, %d words) to %s\n",
			conv.ID, summary.TotalMessages, summary.TotalWords, path)
	}
	return nil
}
