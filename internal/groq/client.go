// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package groq provides the HTTP client for the Groq chat-completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Groq client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeAuth
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeRateLimited
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrMissingAPIKey = &ClientError{Type: ErrTypeAuth, Message: "API key not configured"}
	ErrUnauthorized  = &ClientError{Type: ErrTypeAuth, Message: "invalid API key"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
	ErrRateLimited   = &ClientError{Type: ErrTypeRateLimited, Message: "rate limit exceeded"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Groq client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: https://api.groq.com/openai/v1)
	BaseURL string

	// APIKey authenticates every request. Required.
	APIKey string

	// DefaultModel to use if none specified.
	DefaultModel string

	// Timeout for requests (default: 60s)
	Timeout time.Duration

	// Temperature, MaxTokens, and TopP are the default sampling parameters.
	Temperature float64
	MaxTokens   int
	TopP        float64

	// MaxRetries for transient failures (default: 3)
	MaxRetries int

	// RetryDelay between retries (default: 1s)
	RetryDelay time.Duration

	// RequestsPerSecond caps outgoing request rate (default: 2)
	RequestsPerSecond float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "https://api.groq.com/openai/v1",
		DefaultModel:      "deepseek-r1-distill-llama-70b",
		Timeout:           60 * time.Second,
		Temperature:       0.7,
		MaxTokens:         4096,
		TopP:              0.95,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
		RequestsPerSecond: 2,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Groq API. It is safe for
// concurrent use.
//
// Example:
//
//	client := groq.NewClient(apiKey)
//	reply, err := client.Chat(ctx, "", messages)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	// modelMu guards the default model, which can be swapped at runtime
	// (config reload) while requests are in flight.
	modelMu      sync.RWMutex
	defaultModel string
}

// NewClient creates a Groq client with default configuration.
func NewClient(apiKey string) *Client {
	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a Groq client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "https://api.groq.com/openai/v1"
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "deepseek-r1-distill-llama-70b"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 2
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		defaultModel: config.DefaultModel,
	}
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends a non-streaming chat completion and returns the assistant's
// reply text. Transient failures (429, 5xx, connection errors) are retried
// up to MaxRetries times.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	if model == "" {
		model = c.GetDefaultModel()
	}

	reqBody := ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		TopP:        c.config.TopP,
		Stream:      false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.config.RetryDelay):
			case <-ctx.Done():
				return "", ErrTimeout
			}
		}

		result, err := c.doChat(ctx, body)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", lastErr
}

// doChat performs a single chat completion request.
func (c *Client) doChat(ctx context.Context, body []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", ErrTimeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", ErrTimeout
		}
		return "", &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	if len(result.Choices) == 0 {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "response contains no choices"}
	}

	return result.Choices[0].Message.Content, nil
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels retrieves the models available to the configured API key.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ErrTimeout
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Data, nil
}

// CheckReachable verifies the API endpoint answers with the configured key.
func (c *Client) CheckReachable(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// GetDefaultModel returns the current default model.
func (c *Client) GetDefaultModel() string {
	c.modelMu.RLock()
	defer c.modelMu.RUnlock()
	return c.defaultModel
}

// SetModel updates the default model.
func (c *Client) SetModel(model string) {
	c.modelMu.Lock()
	defer c.modelMu.Unlock()
	c.defaultModel = model
}

// checkStatus maps non-2xx responses to typed client errors.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var envelope apiError
	msg := ""
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		msg = envelope.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg != "" {
			return &ClientError{Type: ErrTypeAuth, Message: msg}
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		if msg != "" {
			return &ClientError{Type: ErrTypeModelNotFound, Message: msg}
		}
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		if msg != "" {
			return &ClientError{Type: ErrTypeRateLimited, Message: msg}
		}
		return ErrRateLimited
	default:
		if msg == "" {
			msg = "request failed: " + resp.Status
		}
		t := ErrTypeInvalidResponse
		if resp.StatusCode >= 500 {
			t = ErrTypeConnection
		}
		return &ClientError{Type: t, Message: msg}
	}
}

// isRetryable reports whether an error is worth retrying.
func isRetryable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeRateLimited || clientErr.Type == ErrTypeConnection
	}
	return false
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeAuth
	}
	return false
}

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeRateLimited
	}
	return false
}
