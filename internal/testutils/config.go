package testutils

import (
	"time"

	"github.com/nerdneilsfield/go-doc-translator/internal/config"
)

// CreateTestConfig 创建通用测试配置，存储目录位于 storagePath
func CreateTestConfig(storagePath string) *config.Config {
	return &config.Config{
		// 服务配置
		Server: config.ServerConfig{
			Addr:           "127.0.0.1:0",
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    1,
		},

		// 存储配置
		Storage: config.StorageConfig{
			Path:         storagePath,
			OutputSuffix: "_translated",
		},

		// 模型配置，echo 不发起网络请求
		LLM: config.LLMConfig{
			Provider:    "echo",
			Model:       "test-model",
			Temperature: 0.1,
			Timeout:     5 * time.Second,
		},

		// 翻译配置
		Translation: config.TranslationConfig{
			TargetLanguage: "French",
			BatchSize:      8,
		},
	}
}
