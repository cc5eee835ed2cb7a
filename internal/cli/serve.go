// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - HTTP server command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/groq"
	"github.com/jeranaias/parley/internal/server"
	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/voice"
)

// shutdownTimeout bounds how long graceful shutdown may take before the
// process exits anyway.
const shutdownTimeout = 10 * time.Second

// HandleServe runs the HTTP API server until interrupted.
func HandleServe(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("serve", "could not load configuration", err)
	}

	host := cfg.Server.Host
	if h, ok := args.Options["host"]; ok {
		host = h
	}
	port := cfg.Server.Port
	if p, ok := args.Options["port"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return &ValidationError{Field: "port", Value: p, Reason: "must be 1-65535"}
		}
		port = n
	}

	model := cfg.Groq.Model
	if args.Model != "" {
		model = args.Model
	}

	dbPath := cfg.Storage.DatabasePath
	if dbPath == "" {
		dbPath, err = storage.DefaultPath()
		if err != nil {
			return NewCommandError("serve", "could not resolve database path", err)
		}
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return NewCommandError("serve", "could not open database", err)
	}
	defer store.Close()

	if cfg.Storage.RetentionDays > 0 {
		age := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
		if pruned, err := store.CleanupOlderThan(age); err != nil {
			log.Printf("RETENTION_CLEANUP_FAILED | error=%v", err)
		} else if pruned > 0 {
			log.Printf("RETENTION_CLEANUP | pruned=%d retention_days=%d", pruned, cfg.Storage.RetentionDays)
		}
	}

	srv := server.NewServer(host, port).
		WithStore(store).
		WithExportDir(cfg.Export.OutputDir).
		WithRateLimit(cfg.Server.RequestsPerSecond, int(cfg.Server.RequestsPerSecond)*2).
		WithMaxBodyBytes(cfg.Server.MaxBodyBytes)

	var client *groq.Client
	if cfg.Groq.APIKey != "" {
		client = groq.NewClientWithConfig(&groq.ClientConfig{
			BaseURL:      cfg.Groq.BaseURL,
			APIKey:       cfg.Groq.APIKey,
			DefaultModel: model,
			Temperature:  cfg.Groq.Temperature,
			MaxTokens:    cfg.Groq.MaxTokens,
			TopP:         cfg.Groq.TopP,
		})
		srv = srv.WithGroqClient(client)
	} else {
		// The server still runs: chat replies carry the configuration
		// error until a key is set.
		log.Printf("GROQ_KEY_MISSING | set GROQ_API_KEY to enable chat")
	}

	if cfg.Voice.Enabled {
		controller := voice.DetectController(cfg.Voice.RecognizerCommand)
		srv = srv.WithVoice(controller).
			WithVoiceDefaults(true, cfg.Voice.AutoSpeak)
		log.Printf("VOICE_ENABLED | can_listen=%t can_speak=%t auto_speak=%t", controller.CanListen(), controller.CanSpeak(), cfg.Voice.AutoSpeak)
	}

	// Pick up model changes from the config file without a restart.
	if cfgPath, pathErr := config.Path(); pathErr == nil {
		watcher, watchErr := config.Watch(cfgPath, func(updated *config.Config) {
			if client != nil && updated.Groq.Model != "" {
				client.SetModel(updated.Groq.Model)
				log.Printf("CONFIG_RELOADED | model=%s", updated.Groq.Model)
			}
		})
		if watchErr == nil {
			defer watcher.Close()
		}
	}

	if !args.Quiet {
		fmt.Printf("parley %s listening on http://%s:%d\n", Version, host, srv.Port())
		fmt.Printf("  model:    %s\n", model)
		fmt.Printf("  database: %s\n", store.Path())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return NewCommandError("serve", "server stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("SHUTDOWN_REQUESTED | draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return NewCommandError("serve", "shutdown failed", err)
	}
	return nil
}
