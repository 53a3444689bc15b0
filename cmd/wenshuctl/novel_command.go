package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
)

type novelDetail struct {
	novelRow
	Premise     string                 `json:"premise"`
	Characters  []entity.Character     `json:"characters"`
	ChapterList []chapterRow           `json:"chapterList"`
	Groups      []library.ChapterGroup `json:"groups"`
}

type chapterRow struct {
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Words      int    `json:"words"`
	HasOutline bool   `json:"hasOutline"`
}

func newNovelCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "novel",
		Short: "查看单部作品",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <novel-id>",
		Short: "显示作品信息与章节目录",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd.Context(), func(svc *library.Service) error {
				n, err := svc.GetNovel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				detail := toNovelDetail(n)
				if ctx.jsonOutput() {
					return writeJSON(cmd, detail)
				}
				printNovelDetail(cmd, detail)
				return nil
			})
		},
	})
	return cmd
}

func toNovelDetail(n *entity.Novel) novelDetail {
	chapters := make([]chapterRow, 0, len(n.Chapters))
	for i := range n.Chapters {
		c := &n.Chapters[i]
		chapters = append(chapters, chapterRow{
			Index:      i + 1,
			ID:         c.ID,
			Title:      c.Title,
			Status:     string(c.Status),
			Words:      c.WordCount(),
			HasOutline: c.HasOutline(),
		})
	}
	return novelDetail{
		novelRow:    toNovelRow(n),
		Premise:     n.Premise,
		Characters:  n.Characters,
		ChapterList: chapters,
		Groups:      library.ChapterGroups(n),
	}
}

func printNovelDetail(cmd *cobra.Command, d novelDetail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "《%s》 %s\n", d.Title, d.Genre)
	fmt.Fprintf(out, "ID: %s\n", d.ID)
	if d.Premise != "" {
		fmt.Fprintf(out, "简介: %s\n", d.Premise)
	}
	fmt.Fprintf(out, "章节: %d  字数: %d  大纲覆盖: %s\n", d.Chapters, d.Words, formatCoverage(d.Coverage))
	if len(d.Characters) > 0 {
		names := make([]string, 0, len(d.Characters))
		for _, c := range d.Characters {
			names = append(names, c.Name)
		}
		fmt.Fprintf(out, "角色: %s\n", strings.Join(names, "、"))
	}
	if len(d.ChapterList) == 0 {
		return
	}

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(d.ChapterList))
	for _, c := range d.ChapterList {
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			c.ID,
			c.Title,
			colorStatus(out, c.Status),
			strconv.Itoa(c.Words),
			yesNo(c.HasOutline),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "ID", "Title", "Status", "Words", "Outline"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(d.ChapterList) > 10 {
		fmt.Fprintln(out)
		printGroups(cmd, d.Groups, "")
	}
}

func printGroups(cmd *cobra.Command, groups []library.ChapterGroup, indent string) {
	for _, g := range groups {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", indent, g.Label)
		printGroups(cmd, g.SubGroups, indent+"  ")
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
