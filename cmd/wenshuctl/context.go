package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/wire"
	"wenshu-novel-api/pkg/logger"
)

type commandContext struct {
	configDirFlag *string
	jsonFlag      *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configDirFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configDirFlag: configDirFlag,
		jsonFlag:      jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		_ = godotenv.Load()

		dir := ""
		if c.configDirFlag != nil {
			dir = strings.TrimSpace(*c.configDirFlag)
		}
		if dir == "" {
			dir = os.Getenv("WENSHU_CONFIG_DIR")
		}
		if dir == "" {
			dir = config.DefaultConfigDir
		}
		cfg, err := config.LoadFrom(dir)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withLibrary 以只读方式打开书库，命令不会回写存储
func (c *commandContext) withLibrary(ctx context.Context, fn func(*library.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	svc, cleanup, err := wire.InitializeLibrary(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(svc)
}

// initLogger 日志写到 stderr，避免混进表格与 JSON 输出
func initLogger(cmd *cobra.Command, level string) {
	logger.InitWithWriter(cmd.ErrOrStderr(), level, "text")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
