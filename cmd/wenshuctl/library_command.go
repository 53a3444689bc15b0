package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
)

type novelRow struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Genre     string  `json:"genre"`
	Chapters  int     `json:"chapters"`
	Words     int     `json:"words"`
	Coverage  float64 `json:"coverage"`
	CreatedAt string  `json:"createdAt"`
}

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "查看书库",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出全部作品",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd.Context(), func(svc *library.Service) error {
				rows := make([]novelRow, 0)
				for _, n := range svc.ListNovels(cmd.Context()) {
					rows = append(rows, toNovelRow(n))
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rows)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "书库为空")
					return nil
				}
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					table = append(table, []string{
						r.ID,
						r.Title,
						r.Genre,
						strconv.Itoa(r.Chapters),
						strconv.Itoa(r.Words),
						formatCoverage(r.Coverage),
						r.CreatedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Genre", "Chapters", "Words", "Coverage", "Created"},
					table,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	})
	return cmd
}

func toNovelRow(n *entity.Novel) novelRow {
	words := 0
	for i := range n.Chapters {
		words += n.Chapters[i].WordCount()
	}
	return novelRow{
		ID:        n.ID,
		Title:     n.Title,
		Genre:     string(n.Genre),
		Chapters:  len(n.Chapters),
		Words:     words,
		Coverage:  n.Coverage(),
		CreatedAt: time.UnixMilli(n.CreatedAt).Format("2006-01-02 15:04"),
	}
}

func formatCoverage(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64) + "%"
}
