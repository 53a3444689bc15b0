package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wenshu-novel-api/internal/application/export"
	"wenshu-novel-api/internal/application/library"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		chapterIDs []string
		format     string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export <novel-id>",
		Short: "导出作品为 txt 或 md",
		Long:  "未指定 --chapters 时导出全部章节；--output 为目录时使用作品标题作为文件名，为空时写到标准输出。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd.Context(), func(svc *library.Service) error {
				n, err := svc.GetNovel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				ids := chapterIDs
				if len(ids) == 0 {
					for i := range n.Chapters {
						ids = append(ids, n.Chapters[i].ID)
					}
				}
				doc, err := export.Render(n, ids, f)
				if err != nil {
					return err
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(doc.Body)
					return err
				}
				path := output
				if info, err := os.Stat(output); err == nil && info.IsDir() {
					path = filepath.Join(output, filepath.Base(doc.Filename))
				}
				if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "已导出 %d 章到 %s\n", len(ids), path)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&chapterIDs, "chapters", nil, "要导出的章节 ID，逗号分隔")
	cmd.Flags().StringVar(&format, "format", "txt", "导出格式：txt 或 md")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件或目录")
	return cmd
}
