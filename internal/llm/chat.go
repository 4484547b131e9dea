package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient calls an OpenAI-compatible /chat/completions endpoint, which is
// what Mistral exposes.
type ChatClient struct {
	name        string
	client      *openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewChatClient creates a client for the endpoint rooted at cfg.BaseURL.
func NewChatClient(name string, cfg Config, logger *zap.Logger) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" {
		// go-openai 的 API 后缀以斜杠开头，避免出现双斜杠
		conf.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &ChatClient{
		name:        name,
		client:      openai.NewClientWithConfig(conf),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.With(zap.String("provider", name)),
	}, nil
}

// Translate sends one system/user exchange and returns the trimmed reply.
func (c *ChatClient) Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: float32(c.temperature),
	}

	c.logger.Debug("sending chat completion request",
		zap.String("model", c.model),
		zap.Int("promptLength", len(userPrompt)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("chat completion failed", zap.String("model", c.model), zap.Error(err))
		return "", c.providerError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: c.name, Message: ErrEmptyResponse.Error(), Err: ErrEmptyResponse}
	}

	c.logger.Debug("chat completion succeeded",
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *ChatClient) providerError(err error) *ProviderError {
	pe := &ProviderError{Provider: c.name, Message: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
		pe.Message = apiErr.Message
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}
