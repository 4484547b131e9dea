package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/config"
	"github.com/nerdneilsfield/go-doc-translator/internal/logger"
)

// rootOptions 全局命令行标志
type rootOptions struct {
	cfgFile   string
	debugMode bool
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "doc-translator",
		Short: "保留格式的文档翻译服务",
		Long: `doc-translator 使用大语言模型翻译文档，并保留原有的字符格式。

支持的文件格式:
  - .txt, .md: 整体翻译，原样写回
  - .docx:     按段落翻译，保留粗体、斜体、下划线、字体、字号、颜色和高亮
  - .pptx:     按幻灯片文本翻译，保留粗体、斜体、下划线、字体、字号和颜色

支持的模型服务:
  - mistral:           Mistral 聊天接口（默认）
  - openai:            OpenAI 官方接口
  - openai-compatible: 任何兼容 OpenAI 的接口
  - echo:              不翻译，原样返回（未配置密钥时使用）`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "配置文件路径（默认查找 ./.doctranslator.yaml 和 ~/.doctranslator.yaml）")
	rootCmd.PersistentFlags().BoolVar(&opts.debugMode, "debug", false, "启用调试日志")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newTranslateCommand(opts),
		newJobsCommand(),
	)
	return rootCmd
}

// load 加载配置，命令行标志优先
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if o.debugMode {
		cfg.Debug = true
	}
	return cfg, nil
}

// serviceLogger 服务模式使用 JSON 日志
func serviceLogger(cfg *config.Config) *zap.Logger {
	return logger.NewLogger(cfg.Debug)
}
