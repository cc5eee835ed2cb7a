// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// show.go - Terminal conversation rendering.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/parley/internal/storage"
)

// HandleShow renders one conversation in the terminal.
func HandleShow(args Args) error {
	if args.ConversationID == "" {
		return ErrMissingArgument("conversation id", "parley show chat_20250115_143022")
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	conv, err := store.Load(args.ConversationID)
	if err != nil {
		if errors.Is(err, storage.ErrConversationNotFound) {
			return ErrNotFound("conversation", args.ConversationID)
		}
		return NewCommandError("show", "could not load conversation", err)
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(conv)
	}

	md := conversationMarkdown(conv)
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(md))
	} else {
		// Piped output stays plain so downstream tools see clean text.
		fmt.Print(md)
	}
	return nil
}

// conversationMarkdown formats a conversation as a markdown transcript.
func conversationMarkdown(conv *storage.Conversation) string {
	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = conv.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if conv.Model != "" {
		fmt.Fprintf(&sb, "*Model: %s*\n\n", conv.Model)
	}
	fmt.Fprintf(&sb, "*Started: %s, %d messages*\n\n",
		conv.CreatedAt.Format("2006-01-02 15:04"), len(conv.Messages))
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		label := "Assistant"
		if msg.Role == "user" {
			label = "You"
		}
		fmt.Fprintf(&sb, "**%s** (%s)\n\n", label, msg.Timestamp.Format("15:04"))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
