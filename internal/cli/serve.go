package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/server"
)

const shutdownTimeout = 10 * time.Second

// newServeCommand 创建 serve 子命令
func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 翻译服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			log := serviceLogger(cfg)
			defer func() {
				_ = log.Sync()
			}()

			svc, err := newServices(cfg, log)
			if err != nil {
				return err
			}
			runner := svc.runner()

			srv := server.New(server.Options{
				Store:          svc.store,
				Storage:        svc.storage,
				Dispatcher:     svc.dispatcher,
				Runner:         runner,
				Client:         svc.client,
				MaxUploadBytes: cfg.MaxUploadBytes(),
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}, runner.Wait, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址，覆盖 server.addr")
	return cmd
}

// serve 运行服务直到 ctx 取消，然后优雅关闭并等待进行中的作业
func serve(ctx context.Context, httpServer *http.Server, waitJobs func(), log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("服务启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}

	log.Info("waiting for running jobs")
	waitJobs()
	log.Info("server exited")
	return nil
}
