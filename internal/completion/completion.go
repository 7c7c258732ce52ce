// Package completion sends rendered prompt pairs to a chat-completion API
// and returns the raw reply text.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

var (
	// ErrMissingCredential means no API key was configured.
	ErrMissingCredential = errors.New("missing completion API key")
	// ErrUnknownProvider means completion.provider names no known client.
	ErrUnknownProvider = errors.New("unknown completion provider")
	// ErrNoContent is returned for a successful reply with no text in it.
	ErrNoContent = errors.New("no content generated")
)

// ConfigError is a fatal configuration problem detected before any network call.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx reply from the completion API. Status is 0
// when the provider library did not expose it.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return "upstream API error: " + e.Message
	}
	return fmt.Sprintf("upstream API error (HTTP %d): %s", e.Status, e.Message)
}

// Request is one two-message chat completion.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Client sends a completion request and returns the reply text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
}

// New builds the client for cfg.Provider. It fails with a *ConfigError
// when the key or provider is unusable.
func New(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigError{Key: "completion.api_key", Err: ErrMissingCredential}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case ProviderAnthropic, "claude":
		return NewAnthropic(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case ProviderOpenRouter:
		// OpenRouter speaks the OpenAI wire format.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return NewOpenAI(cfg.APIKey, cfg.Model, baseURL), nil
	default:
		return nil, &ConfigError{Key: "completion.provider", Err: fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)}
	}
}
