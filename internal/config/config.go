// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Configuration sources, in order of precedence:
//   - Environment variables (PARLEY_*, GROQ_API_KEY)
//   - .env file in the working directory
//   - ~/.parley/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	Version string `toml:"version"`

	Server  ServerConfig  `toml:"server"`
	Groq    GroqConfig    `toml:"groq"`
	Storage StorageConfig `toml:"storage"`
	Export  ExportConfig  `toml:"export"`
	Voice   VoiceConfig   `toml:"voice"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host to bind (default: 127.0.0.1)
	Host string `toml:"host"`
	// Port to listen on (default: 8741)
	Port int `toml:"port"`
	// RequestsPerSecond caps inbound request rate per client (default: 10)
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// MaxBodyBytes caps request body size (default: 1MB)
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// GroqConfig contains model provider configuration.
type GroqConfig struct {
	// APIKey authenticates against the Groq API. Usually set via the
	// GROQ_API_KEY environment variable rather than the config file.
	APIKey string `toml:"api_key"`
	// BaseURL of the OpenAI-compatible endpoint
	BaseURL string `toml:"base_url"`
	// Model is the default completion model
	Model string `toml:"model"`
	// Temperature, MaxTokens, and TopP are the sampling parameters.
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	TopP        float64 `toml:"top_p"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// DatabasePath is the SQLite file (default: ~/.parley/chats.db)
	DatabasePath string `toml:"database_path"`
	// RetentionDays prunes conversations older than this (0 = keep forever)
	RetentionDays int `toml:"retention_days"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// OutputDir is where exported files are written (default: ".")
	OutputDir string `toml:"output_dir"`
}

// VoiceConfig contains speech configuration.
type VoiceConfig struct {
	// Enabled turns voice features on
	Enabled bool `toml:"enabled"`
	// RecognizerCommand is an external speech-to-text command that prints
	// the transcript on stdout (empty = recognition disabled)
	RecognizerCommand string `toml:"recognizer_command"`
	// AutoSpeak speaks assistant replies aloud
	AutoSpeak bool `toml:"auto_speak"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8741,
			RequestsPerSecond: 10,
			MaxBodyBytes:      1 << 20,
		},

		Groq: GroqConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "deepseek-r1-distill-llama-70b",
			Temperature: 0.7,
			MaxTokens:   4096,
			TopP:        0.95,
		},

		Storage: StorageConfig{
			RetentionDays: 0,
		},

		Export: ExportConfig{
			OutputDir: ".",
		},

		Voice: VoiceConfig{
			Enabled:   false,
			AutoSpeak: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the parley configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions fixes permissions on the config file.
// The file can carry an API key, so it must be owner-only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions: %w", err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.parley/config.toml, the working
// directory's .env file, and the environment, falling back to defaults.
func Load() (*Config, error) {
	// .env values become process env vars unless already set, matching
	// typical dotenv precedence.
	godotenv.Load()

	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadFile(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFile loads configuration from a specific TOML file into cfg.
func LoadFile(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific path with env
// overrides, defaults, and validation applied.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo saves the configuration to a TOML file with 0600 permissions.
// The file is replaced atomically, so a crash mid-save never leaves a
// truncated config behind.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# parley configuration file")
	fmt.Fprintln(&buf, "# Generated by parley - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GROQ_API_KEY: overrides groq.api_key
//   - PARLEY_MODEL: overrides groq.model
//   - PARLEY_BASE_URL: overrides groq.base_url
//   - PARLEY_HOST: overrides server.host
//   - PARLEY_PORT: overrides server.port
//   - PARLEY_DB: overrides storage.database_path
//   - PARLEY_EXPORT_DIR: overrides export.output_dir
//   - PARLEY_VOICE: set to "1" or "true" to enable voice
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.Groq.APIKey = key
	}
	if model := os.Getenv("PARLEY_MODEL"); model != "" {
		c.Groq.Model = model
	}
	if base := os.Getenv("PARLEY_BASE_URL"); base != "" {
		c.Groq.BaseURL = base
	}
	if host := os.Getenv("PARLEY_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PARLEY_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
	if db := os.Getenv("PARLEY_DB"); db != "" {
		c.Storage.DatabasePath = db
	}
	if dir := os.Getenv("PARLEY_EXPORT_DIR"); dir != "" {
		c.Export.OutputDir = dir
	}
	if voice := os.Getenv("PARLEY_VOICE"); voice != "" {
		c.Voice.Enabled = voice == "1" || strings.EqualFold(voice, "true")
	}
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills in defaults for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.RequestsPerSecond == 0 {
		c.Server.RequestsPerSecond = defaults.Server.RequestsPerSecond
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = defaults.Groq.BaseURL
	}
	if c.Groq.Model == "" {
		c.Groq.Model = defaults.Groq.Model
	}
	if c.Groq.Temperature == 0 {
		c.Groq.Temperature = defaults.Groq.Temperature
	}
	if c.Groq.MaxTokens == 0 {
		c.Groq.MaxTokens = defaults.Groq.MaxTokens
	}
	if c.Groq.TopP == 0 {
		c.Groq.TopP = defaults.Groq.TopP
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = defaults.Export.OutputDir
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be 1-65535, got %d", c.Server.Port),
		})
	}
	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.requests_per_second",
			Message: "cannot be negative",
		})
	}
	if c.Groq.Temperature < 0 || c.Groq.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "groq.temperature",
			Message: fmt.Sprintf("must be 0.0-2.0, got %g", c.Groq.Temperature),
		})
	}
	if c.Groq.TopP < 0 || c.Groq.TopP > 1 {
		errs = append(errs, ValidationError{
			Field:   "groq.top_p",
			Message: fmt.Sprintf("must be 0.0-1.0, got %g", c.Groq.TopP),
		})
	}
	if c.Groq.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "groq.max_tokens",
			Message: "cannot be negative",
		})
	}
	if c.Storage.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.retention_days",
			Message: "cannot be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DEBUG OUTPUT
// =============================================================================

// String renders the config for debugging with the API key redacted.
func (c *Config) String() string {
	safe := *c
	if safe.Groq.APIKey != "" {
		safe.Groq.APIKey = "[REDACTED]"
	}

	var sb strings.Builder
	toml.NewEncoder(&sb).Encode(safe)
	return sb.String()
}
