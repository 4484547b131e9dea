package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIClient uses the official OpenAI SDK.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewOpenAIClient creates a client for api.openai.com or cfg.BaseURL.
func NewOpenAIClient(cfg Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Failed calls fail the job, so the SDK must not retry on its own.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.With(zap.String("provider", ProviderOpenAI)),
	}, nil
}

// Translate sends one system/user exchange and returns the trimmed reply.
func (c *OpenAIClient) Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	}

	c.logger.Debug("sending chat completion request",
		zap.String("model", c.model),
		zap.Int("promptLength", len(userPrompt)),
	)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("chat completion failed", zap.String("model", c.model), zap.Error(err))
		pe := &ProviderError{Provider: ProviderOpenAI, Message: err.Error(), Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			pe.StatusCode = apiErr.StatusCode
		}
		return "", pe
	}
	if len(completion.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: ErrEmptyResponse.Error(), Err: ErrEmptyResponse}
	}

	c.logger.Debug("chat completion succeeded",
		zap.Int64("promptTokens", completion.Usage.PromptTokens),
		zap.Int64("completionTokens", completion.Usage.CompletionTokens),
	)
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
