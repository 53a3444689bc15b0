package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configDirFlag string
	var jsonFlag bool
	var logLevel string

	ctx := newCommandContext(&configDirFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "wenshuctl",
		Short:         "文枢书库运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogger(cmd, logLevel)
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "配置目录（默认读取 WENSHU_CONFIG_DIR 或 configs）")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "以 JSON 输出")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "日志级别")

	rootCmd.AddCommand(newLibraryCommand(ctx))
	rootCmd.AddCommand(newNovelCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newEventsCommand(ctx))

	return rootCmd
}
