package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// ChatMessage 是请求中的一条消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest 记录收到的聊天补全请求
type ChatRequest struct {
	Path          string        `json:"-"`
	Authorization string        `json:"-"`
	Model         string        `json:"model"`
	Temperature   float64       `json:"temperature"`
	Messages      []ChatMessage `json:"messages"`
}

// UserMessage 返回请求中的用户消息
func (r ChatRequest) UserMessage() string {
	for _, msg := range r.Messages {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	return ""
}

// SystemMessage 返回请求中的系统消息
func (r ChatRequest) SystemMessage() string {
	for _, msg := range r.Messages {
		if msg.Role == "system" {
			return msg.Content
		}
	}
	return ""
}

// MockChatServer 是一个模拟的 /chat/completions 服务器（OpenAI 与 Mistral 共用同一协议）
type MockChatServer struct {
	Server *httptest.Server
	URL    string

	mu              sync.Mutex
	responses       map[string]string
	defaultResponse string
	echo            bool
	failStatus      int
	requests        []ChatRequest
}

// NewMockChatServer 创建一个新的模拟服务器，测试结束时自动关闭
func NewMockChatServer(t *testing.T) *MockChatServer {
	t.Helper()
	mock := &MockChatServer{
		responses: make(map[string]string),
		echo:      true,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "invalid request body", "type": "invalid_request_error"}}`))
			return
		}
		req.Path = r.URL.Path
		req.Authorization = r.Header.Get("Authorization")

		mock.mu.Lock()
		mock.requests = append(mock.requests, req)
		failStatus := mock.failStatus
		response, ok := mock.responses[req.UserMessage()]
		if !ok {
			response = mock.defaultResponse
			if mock.echo {
				response = req.UserMessage()
			}
		}
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if failStatus != 0 {
			w.WriteHeader(failStatus)
			_, _ = w.Write([]byte(`{"error": {"message": "mock server failure", "type": "server_error"}}`))
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []map[string]interface{}{
				{
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": response,
					},
					"finish_reason": "stop",
					"index":         0,
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     100,
				"completion_tokens": 50,
				"total_tokens":      150,
			},
		})
	}))

	mock.Server = server
	mock.URL = server.URL
	t.Cleanup(server.Close)
	return mock
}

// AddResponse 为特定用户消息设置响应
func (m *MockChatServer) AddResponse(userMessage, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[userMessage] = response
}

// SetDefaultResponse 设置默认响应并关闭回显
func (m *MockChatServer) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResponse = response
	m.echo = false
}

// FailWith 让之后的请求都返回指定状态码，0 表示恢复正常
func (m *MockChatServer) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
}

// Requests 返回已收到的请求副本
func (m *MockChatServer) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.requests...)
}
