// Package main 文枢 API 服务入口
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wenshu-novel-api/internal/config"
	einoobs "wenshu-novel-api/internal/observability/eino"
	"wenshu-novel-api/internal/wire"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/tracer"
)

// 构建时通过 -ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const drainTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wenshu-api: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(context.Background(), "wenshu-api exited", err)
	}
}

// run 在 ctx 取消或监听失败前阻塞；返回前依次关闭 HTTP、后台任务与快照写入
func run(ctx context.Context, cfg *config.Config) error {
	logger.Info(ctx, "starting wenshu-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
		"storage", cfg.Storage.Driver,
	)

	tracing := cfg.Observability.Tracing
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: Version,
		Endpoint:       tracing.Endpoint,
		SampleRate:     tracing.SampleRate,
		Enabled:        tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn(ctx, "tracer shutdown failed", "error", err.Error())
		}
	}()

	einoobs.Init()

	app, cleanup, err := wire.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer cleanup()

	httpCfg := cfg.Server.HTTP
	srv := &http.Server{
		Addr:         httpCfg.Addr(),
		Handler:      app.Router.Engine(),
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down", "drain_timeout", drainTimeout.String())
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
