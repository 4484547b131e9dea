// Package llm talks to chat-completion services on behalf of the translators.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Supported providers.
const (
	ProviderMistral          = "mistral"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
	ProviderEcho             = "echo"
)

// DefaultMistralBaseURL is the Mistral chat-completions API root.
const DefaultMistralBaseURL = "https://api.mistral.ai/v1"

var (
	// ErrMissingAPIKey is returned when a remote provider is selected without a key.
	ErrMissingAPIKey = errors.New("llm api key is not configured")
	// ErrEmptyResponse is returned when the service answers without any choice.
	ErrEmptyResponse = errors.New("llm returned no choices")
	// ErrUnknownProvider is returned for an unrecognised provider name.
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// Client translates one prompt pair. Implementations must be safe for
// concurrent use by several jobs.
type Client interface {
	Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Translate calls f.
func (f ClientFunc) Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// ProviderError wraps a failed call to a remote service.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient. Nothing retries
// automatically; callers may use it to word their messages.
func (e *ProviderError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// New builds the client for cfg.Provider. An empty provider means Mistral when
// a key is configured and the echo client otherwise.
func New(cfg Config, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderMistral
		if cfg.APIKey == "" {
			provider = ProviderEcho
		}
	}

	logger.Debug("creating llm client",
		zap.String("provider", provider),
		zap.String("model", cfg.Model),
		zap.String("baseURL", cfg.BaseURL),
		zap.String("apiKey", maskAuthToken(cfg.APIKey)),
		zap.Duration("timeout", cfg.Timeout),
	)

	switch provider {
	case ProviderEcho:
		logger.Warn("no llm credentials configured, documents will be echoed untranslated")
		return EchoClient{}, nil
	case ProviderMistral:
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultMistralBaseURL
		}
		return NewChatClient(ProviderMistral, cfg, logger)
	case ProviderOpenAICompatible:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%s provider requires a base url", provider)
		}
		return NewChatClient(ProviderOpenAICompatible, cfg, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// maskAuthToken 遮蔽认证令牌，只显示前4位和后4位
func maskAuthToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
