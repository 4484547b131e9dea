package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 DOCTRANSLATOR_LLM_API_KEY
const EnvPrefix = "DOCTRANSLATOR"

// legacyEnv 兼容旧部署使用的环境变量名
var legacyEnv = map[string]string{
	"llm.api_key":            "MISTRAL_API_KEY",
	"llm.model":              "MISTRAL_MODEL",
	"llm.base_url":           "MISTRAL_API_BASE",
	"storage.path":           "STORAGE_PATH",
	"server.allowed_origins": "FRONTEND_ORIGIN",
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 50)

	v.SetDefault("storage.path", ".data")
	v.SetDefault("storage.output_suffix", "_translated")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "mistral-small-latest")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("translation.target_language", "French")
	v.SetDefault("translation.batch_size", 8)
	v.SetDefault("translation.paragraph_delimiter", "")
	v.SetDefault("translation.prompts_file", "")

	v.SetDefault("debug", false)
}

// LoadConfig 加载配置：默认值 < 配置文件 < 环境变量（含 .env）
func LoadConfig(configPath string) (*Config, error) {
	// .env 不覆盖已存在的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".doctranslator")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
