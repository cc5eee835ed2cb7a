// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/storage"
)

// openStore opens the conversation database using the configured path.
// The caller closes the store.
func openStore() (*storage.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, NewCommandError("config", "could not load configuration", err)
	}

	path := cfg.Storage.DatabasePath
	if path == "" {
		path, err = storage.DefaultPath()
		if err != nil {
			return nil, nil, NewCommandError("storage", "could not resolve database path", err)
		}
	}

	store, err := storage.Open(path)
	if err != nil {
		return nil, nil, NewCommandError("storage", "could not open database", err)
	}
	return store, cfg, nil
}
