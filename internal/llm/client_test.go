package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/test"
)

func testConfig(provider, baseURL string) Config {
	return Config{
		Provider:    provider,
		APIKey:      "test-api-key",
		BaseURL:     baseURL,
		Model:       "mistral-small-latest",
		Temperature: 0.1,
		Timeout:     5 * time.Second,
	}
}

func TestChatClientTranslate(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.AddResponse("<s1>Hello</s1>", "  <s1>Bonjour</s1>\n")

	client, err := NewChatClient(ProviderMistral, testConfig(ProviderMistral, server.URL+"/"), zap.NewNop())
	require.NoError(t, err)

	out, err := client.Translate(context.Background(), "system text", "<s1>Hello</s1>")
	require.NoError(t, err)
	assert.Equal(t, "<s1>Bonjour</s1>", out)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/chat/completions", reqs[0].Path)
	assert.Equal(t, "Bearer test-api-key", reqs[0].Authorization)
	assert.Equal(t, "mistral-small-latest", reqs[0].Model)
	assert.InDelta(t, 0.1, reqs[0].Temperature, 1e-6)
	assert.Equal(t, "system text", reqs[0].SystemMessage())
	assert.Equal(t, "<s1>Hello</s1>", reqs[0].UserMessage())
}

func TestChatClientError(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.FailWith(http.StatusBadGateway)

	client, err := NewChatClient(ProviderMistral, testConfig(ProviderMistral, server.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = client.Translate(context.Background(), "sys", "user")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ProviderMistral, pe.Provider)
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
	assert.Equal(t, "mock server failure", pe.Message)
	assert.True(t, pe.IsRetryable())
	assert.Contains(t, pe.Error(), "502")
}

func TestOpenAIClientTranslate(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.SetDefaultResponse("Hola")

	client, err := NewOpenAIClient(testConfig(ProviderOpenAI, server.URL), zap.NewNop())
	require.NoError(t, err)

	out, err := client.Translate(context.Background(), "sys", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/chat/completions", reqs[0].Path)
	assert.Equal(t, "Hello", reqs[0].UserMessage())
}

func TestOpenAIClientError(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.FailWith(http.StatusInternalServerError)

	client, err := NewOpenAIClient(testConfig(ProviderOpenAI, server.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = client.Translate(context.Background(), "sys", "user")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	// Retries are disabled, so the server sees exactly one call.
	assert.Len(t, server.Requests(), 1)
}

func TestNew(t *testing.T) {
	t.Run("no key falls back to echo", func(t *testing.T) {
		client, err := New(Config{}, nil)
		require.NoError(t, err)
		assert.IsType(t, EchoClient{}, client)
	})

	t.Run("key without provider means mistral", func(t *testing.T) {
		client, err := New(Config{APIKey: "k"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &ChatClient{}, client)
	})

	t.Run("explicit provider needs key", func(t *testing.T) {
		_, err := New(Config{Provider: ProviderMistral}, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingAPIKey)

		_, err = New(Config{Provider: ProviderOpenAI}, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("compatible provider needs base url", func(t *testing.T) {
		_, err := New(Config{Provider: ProviderOpenAICompatible, APIKey: "k"}, zap.NewNop())
		assert.Error(t, err)

		client, err := New(Config{Provider: ProviderOpenAICompatible, APIKey: "k", BaseURL: "http://localhost:11434/v1"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &ChatClient{}, client)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "carrier-pigeon", APIKey: "k"}, zap.NewNop())
		assert.True(t, errors.Is(err, ErrUnknownProvider))
	})
}

func TestEchoClient(t *testing.T) {
	out, err := EchoClient{}.Translate(context.Background(), "ignored", "<s1>same</s1>")
	require.NoError(t, err)
	assert.Equal(t, "<s1>same</s1>", out)
}

func TestMaskAuthToken(t *testing.T) {
	assert.Equal(t, "***", maskAuthToken("short"))
	assert.Equal(t, "sk-1...cdef", maskAuthToken("sk-1234567890abcdef"))
}
