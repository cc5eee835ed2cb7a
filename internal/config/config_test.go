// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// DEFAULTS AND VALIDATION TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Groq.Model == "" {
		t.Error("default model empty")
	}
	if cfg.Server.Port == 0 {
		t.Error("default port unset")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RequestsPerSecond = -1 }, "server.requests_per_second"},
		{"temperature out of range", func(c *Config) { c.Groq.Temperature = 3 }, "groq.temperature"},
		{"top_p out of range", func(c *Config) { c.Groq.TopP = 1.5 }, "groq.top_p"},
		{"negative retention", func(c *Config) { c.Storage.RetentionDays = -7 }, "storage.retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %q", err, tt.field)
			}
		})
	}
}

func TestSetDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Server.Port != 8741 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Groq.BaseURL == "" {
		t.Error("base URL not defaulted")
	}
	if cfg.Groq.Temperature != 0.7 {
		t.Errorf("temperature = %g", cfg.Groq.Temperature)
	}
}

// =============================================================================
// SAVE AND LOAD TESTS
// =============================================================================

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Groq.Model = "llama-3.3-70b-versatile"
	cfg.Server.Port = 9000
	cfg.Voice.Enabled = true

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	// Config may hold an API key, so the file must be owner-only.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}

	loaded := Default()
	if err := LoadFile(loaded, path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Groq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", loaded.Groq.Model)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("port = %d", loaded.Server.Port)
	}
	if !loaded.Voice.Enabled {
		t.Error("voice flag lost")
	}
}

func TestSaveTo_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := SaveTo(Default(), path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	updated := Default()
	updated.Groq.Model = "replacement-model"
	if err := SaveTo(updated, path); err != nil {
		t.Fatalf("second SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := LoadFile(loaded, path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Groq.Model != "replacement-model" {
		t.Errorf("model = %q", loaded.Groq.Model)
	}

	// The save goes through a temp file and rename; nothing else may be
	// left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "config.toml" {
			t.Errorf("stray file %q after save", e.Name())
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[server]\nport = 99999\n"), 0600)

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected validation error")
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test123")
	t.Setenv("PARLEY_MODEL", "env-model")
	t.Setenv("PARLEY_PORT", "9999")
	t.Setenv("PARLEY_VOICE", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Groq.APIKey != "gsk_test123" {
		t.Errorf("api key = %q", cfg.Groq.APIKey)
	}
	if cfg.Groq.Model != "env-model" {
		t.Errorf("model = %q", cfg.Groq.Model)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if !cfg.Voice.Enabled {
		t.Error("voice not enabled from env")
	}
}

func TestApplyEnvOverrides_IgnoresBadPort(t *testing.T) {
	t.Setenv("PARLEY_PORT", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Server.Port != 8741 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

// =============================================================================
// REDACTION TESTS
// =============================================================================

func TestString_RedactsAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Groq.APIKey = "gsk_secret_value"

	out := cfg.String()
	if strings.Contains(out, "gsk_secret_value") {
		t.Error("API key leaked in String()")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("redaction marker missing")
	}
	// The original must not be mutated.
	if cfg.Groq.APIKey != "gsk_secret_value" {
		t.Error("String() mutated the config")
	}
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := SaveTo(Default(), path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	var mu sync.Mutex
	var got *Config
	w, err := Watch(path, func(cfg *Config) {
		mu.Lock()
		got = cfg
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	updated := Default()
	updated.Groq.Model = "reloaded-model"
	if err := SaveTo(updated, path); err != nil {
		t.Fatalf("second SaveTo failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := got != nil
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if got == nil {
		t.Fatal("reload callback never fired")
	}
	if got.Groq.Model != "reloaded-model" {
		t.Errorf("reloaded model = %q", got.Groq.Model)
	}
}
