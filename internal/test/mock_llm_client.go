package test

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockLLMClient 是一个模拟的LLM客户端
type MockLLMClient struct {
	mock.Mock
}

// Translate 执行翻译请求
func (m *MockLLMClient) Translate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

// ReplacerClient 通过简单的字符串替换模拟翻译，并记录收到的用户提示
type ReplacerClient struct {
	replacer *strings.Replacer

	mu      sync.Mutex
	prompts []string
}

// NewReplacerClient 创建替换客户端，参数为 old, new 成对出现
func NewReplacerClient(oldnew ...string) *ReplacerClient {
	return &ReplacerClient{replacer: strings.NewReplacer(oldnew...)}
}

// NewFrenchClient 返回测试中常用的英法替换客户端
func NewFrenchClient() *ReplacerClient {
	return NewReplacerClient("Hello", "Bonjour", "world", "monde", "Simple text", "Texte simple")
}

// Translate 对用户提示执行替换
func (c *ReplacerClient) Translate(_ context.Context, _, userPrompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, userPrompt)
	c.mu.Unlock()
	return c.replacer.Replace(userPrompt), nil
}

// Prompts 返回已收到的用户提示
func (c *ReplacerClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
