package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wenshu-novel-api/internal/infrastructure/messaging"
	"wenshu-novel-api/internal/infrastructure/persistence/redis"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "书库变更事件",
	}

	var (
		fromStart bool
		novelID   string
	)
	tail := &cobra.Command{
		Use:   "tail",
		Short: "持续输出 Redis Stream 中的书库变更，Ctrl-C 退出",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Messaging.Enabled || !cfg.Cache.Redis.Enabled {
				return errors.New("events tail requires messaging.enabled and cache.redis.enabled")
			}

			client, err := redis.NewClient(&cfg.Cache.Redis)
			if err != nil {
				return err
			}
			defer client.Close()

			startID := "$"
			if fromStart {
				startID = "0"
			}
			consumer := messaging.NewConsumer(client.Redis(), messaging.ConsumerConfig{
				Stream:       messaging.StreamLibrary,
				Group:        messaging.ConsumerGroupCLI,
				ConsumerName: "wenshuctl-" + uuid.NewString()[:8],
				BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
				StartID:      startID,
			})

			out := cmd.OutOrStdout()
			jsonOut := ctx.jsonOutput()
			consumer.RegisterHandler(messaging.MessageTypeLibraryChanged, func(_ context.Context, msg *messaging.Message) error {
				var change messaging.LibraryChange
				if err := msg.UnmarshalPayload(&change); err != nil {
					return err
				}
				if novelID != "" && change.NovelID != novelID {
					return nil
				}
				return writeChange(out, change, jsonOut)
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "following %s (group %s)\n", messaging.StreamLibrary, messaging.ConsumerGroupCLI)
			return consumer.Run(runCtx)
		},
	}
	tail.Flags().BoolVar(&fromStart, "from-start", false, "消费者组首次创建时从最早的消息开始")
	tail.Flags().StringVar(&novelID, "novel", "", "只显示指定作品的变更")

	cmd.AddCommand(tail)
	return cmd
}

func writeChange(w io.Writer, change messaging.LibraryChange, jsonOut bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(change)
	}
	_, err := fmt.Fprintln(w, formatChange(change))
	return err
}

func formatChange(change messaging.LibraryChange) string {
	line := fmt.Sprintf("%s #%d %-18s", time.UnixMilli(change.At).Format("15:04:05.000"), change.Seq, change.Kind)
	if change.NovelID != "" {
		line += " novel=" + change.NovelID
	}
	if change.ChapterID != "" {
		line += " chapter=" + change.ChapterID
	}
	return line
}
