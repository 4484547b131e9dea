package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/batch"
	"github.com/nerdneilsfield/go-doc-translator/internal/config"
	"github.com/nerdneilsfield/go-doc-translator/internal/job"
	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/internal/storage"
	"github.com/nerdneilsfield/go-doc-translator/internal/worker"
)

// services 根据配置组装的运行时组件
type services struct {
	cfg        *config.Config
	logger     *zap.Logger
	client     llm.Client
	storage    *storage.Manager
	store      *job.Store
	dispatcher *pipeline.Dispatcher
}

// newServices 创建存储、模型客户端和分发器
func newServices(cfg *config.Config, log *zap.Logger) (*services, error) {
	client, err := llm.New(cfg.ClientConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("创建模型客户端失败: %w", err)
	}

	st, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	delimiter := cfg.Translation.ParagraphDelimiter
	if delimiter == "" {
		delimiter = batch.DefaultDelimiter
	}
	prompts, err := cfg.Prompts(delimiter)
	if err != nil {
		return nil, fmt.Errorf("加载提示词失败: %w", err)
	}

	dispatcher := pipeline.NewDispatcher(st, pipeline.Options{
		Prompts:      prompts,
		BatchSize:    cfg.Translation.BatchSize,
		Delimiter:    delimiter,
		OutputSuffix: cfg.Storage.OutputSuffix,
		Logger:       log,
	})

	log.Info("services ready",
		zap.String("storage", st.Base()),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("targetLanguage", cfg.Translation.TargetLanguage),
		zap.Int("batchSize", cfg.Translation.BatchSize),
	)

	return &services{
		cfg:        cfg,
		logger:     log,
		client:     client,
		storage:    st,
		store:      job.NewStore(),
		dispatcher: dispatcher,
	}, nil
}

// runner 创建作业执行器
func (s *services) runner(opts ...worker.Option) *worker.Runner {
	opts = append([]worker.Option{worker.WithLogger(s.logger)}, opts...)
	return worker.New(s.store, s.dispatcher, s.client, opts...)
}
