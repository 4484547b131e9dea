package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
	"github.com/nerdneilsfield/go-doc-translator/internal/logger"
	"github.com/nerdneilsfield/go-doc-translator/internal/storage"
	"github.com/nerdneilsfield/go-doc-translator/internal/worker"
)

// translateOptions translate 子命令的标志
type translateOptions struct {
	output         string
	targetLanguage string
	noProgress     bool
}

// newTranslateCommand 创建 translate 子命令，在本地同步执行一个作业
func newTranslateCommand(root *rootOptions) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "在本地翻译一个文件",
		Long: `在本地翻译一个文件，过程与服务端作业相同。

译文写入存储目录下的作业目录，使用 --output 可另外复制一份到指定路径。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if opts.targetLanguage != "" {
				cfg.Translation.TargetLanguage = opts.targetLanguage
			}

			log := logger.NewConsoleLogger(cfg.Debug)
			defer func() {
				_ = log.Sync()
			}()

			svc, err := newServices(cfg, log)
			if err != nil {
				return err
			}
			return runTranslate(cmd, svc, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "译文的额外输出路径")
	cmd.Flags().StringVarP(&opts.targetLanguage, "target-language", "t", "", "目标语言，覆盖 translation.target_language")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "不显示进度条")
	return cmd
}

// runTranslate 创建本地作业、复制输入文件并同步执行
func runTranslate(cmd *cobra.Command, svc *services, inputPath string, opts *translateOptions) error {
	filename, err := storage.SanitizeFilename(filepath.Base(inputPath))
	if err != nil {
		return err
	}
	if _, err := svc.dispatcher.Lookup(filename); err != nil {
		return fmt.Errorf("%w (supported: %v)", err, svc.dispatcher.Extensions())
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("打开输入文件失败: %w", err)
	}
	defer in.Close()

	j := job.New(filename)
	if err := svc.store.Create(j); err != nil {
		return err
	}
	if _, err := svc.storage.SaveInput(j.ID, filename, in); err != nil {
		return err
	}

	var bar *jobProgress
	var runnerOpts []worker.Option
	if !opts.noProgress {
		bar = newJobProgress(cmd.ErrOrStderr(), filename)
		runnerOpts = append(runnerOpts, worker.WithObserver(bar.observe))
	}

	final, runErr := svc.runner(runnerOpts...).Run(cmd.Context(), j.ID)
	if bar != nil {
		bar.finish(final)
	}

	out := cmd.OutOrStdout()
	if runErr != nil {
		fmt.Fprintf(out, "%s %s\n", color.RedString("翻译失败:"), final.Message)
		return runErr
	}

	result := final.ResultPath
	if opts.output != "" {
		if err := copyFile(final.ResultPath, opts.output); err != nil {
			return err
		}
		result = opts.output
	}

	svc.logger.Info("translation finished",
		zap.String("jobID", final.ID),
		zap.String("output", result),
	)
	fmt.Fprintf(out, "%s %s\n", color.GreenString("翻译完成:"), result)
	fmt.Fprintln(out, final.Message)
	return nil
}

// copyFile 将 src 复制到 dst，必要时创建目录
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return out.Close()
}
