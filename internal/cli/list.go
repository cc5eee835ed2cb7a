// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// list.go - Stored conversation listing.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/util"
)

// defaultListLimit is how many conversations list shows by default.
const defaultListLimit = 20

// HandleList prints stored conversations, most recent first.
func HandleList(args Args) error {
	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	limit := optionInt(args, "limit", defaultListLimit)

	var metas []storage.ConversationMeta
	if query, ok := args.Options["search"]; ok && query != "" {
		metas, err = store.Search(query, limit)
	} else {
		metas, err = store.List(limit)
	}
	if err != nil {
		return NewCommandError("list", "could not list conversations", err)
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	}

	if len(metas) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	fmt.Printf("%-22s  %-40s  %5s  %s\n", "ID", "TITLE", "MSGS", "UPDATED")
	for _, m := range metas {
		// PadRight is width-aware, so CJK titles line up.
		fmt.Printf("%-22s  %s  %5d  %s\n",
			m.ID,
			util.PadRight(util.TruncateWidth(m.Title, 40), 40),
			m.MessageCount,
			m.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	if !args.Quiet {
		fmt.Printf("\n%d conversation(s)\n", len(metas))
	}
	return nil
}
