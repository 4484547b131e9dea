package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/prompt"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"` // 单个上传文件大小上限（MB）
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	Path         string `mapstructure:"path"`
	OutputSuffix string `mapstructure:"output_suffix"` // 译文文件名后缀，如 report_translated.docx
}

// LLMConfig 模型服务配置
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // mistral, openai, openai-compatible, echo
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// TranslationConfig 翻译配置
type TranslationConfig struct {
	TargetLanguage     string `mapstructure:"target_language"`
	BatchSize          int    `mapstructure:"batch_size"`          // 每次请求的段落数
	ParagraphDelimiter string `mapstructure:"paragraph_delimiter"` // 为空时使用内置分隔符
	PromptsFile        string `mapstructure:"prompts_file"`        // TOML 格式的提示词覆盖文件
}

// Config 保存应用配置
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Translation TranslationConfig `mapstructure:"translation"`
	Debug       bool              `mapstructure:"debug"`
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	var errs []error
	if c.Translation.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("translation.batch_size must be at least 1, got %d", c.Translation.BatchSize))
	}
	switch strings.ToLower(strings.TrimSpace(c.LLM.Provider)) {
	case "", llm.ProviderMistral, llm.ProviderOpenAI, llm.ProviderOpenAICompatible, llm.ProviderEcho:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", llm.ErrUnknownProvider, c.LLM.Provider))
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage.path must be specified"))
	}
	if strings.TrimSpace(c.Translation.TargetLanguage) == "" {
		errs = append(errs, errors.New("translation.target_language must be specified"))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB))
	}
	return errors.Join(errs...)
}

// ClientConfig 返回创建 LLM 客户端所需的配置
func (c *Config) ClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
	}
}

// Prompts 加载并渲染系统提示词
func (c *Config) Prompts(delimiter string) (prompt.Set, error) {
	templates, err := prompt.Load(c.Translation.PromptsFile)
	if err != nil {
		return prompt.Set{}, err
	}
	return templates.RenderAll(prompt.Vars{
		TargetLanguage: c.Translation.TargetLanguage,
		Delimiter:      delimiter,
	})
}

// MaxUploadBytes 上传大小上限（字节）
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
