// Package export 将作品渲染为可下载的文本文档
package export

import (
	"fmt"
	"strings"

	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
)

// Format 导出格式
type Format string

const (
	FormatTXT Format = "txt"
	FormatMD  Format = "md"
)

const (
	emptyContent = "(暂无内容)"
	txtRule      = "===================================="
	txtDivider   = "------------------------------------"
	defaultStem  = "未命名作品"
)

// ParseFormat 空值视为 txt
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTXT:
		return FormatTXT, nil
	case FormatMD:
		return FormatMD, nil
	default:
		return "", apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("unknown export format %q", s))
	}
}

// Document 导出结果
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Render 按作品中的章节顺序渲染选中的章节，未选中的章节不出现
func Render(n *entity.Novel, chapterIDs []string, format Format) (*Document, error) {
	if len(chapterIDs) == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	selected := make(map[string]bool, len(chapterIDs))
	for _, id := range chapterIDs {
		selected[id] = true
	}

	var b strings.Builder
	doc := &Document{Filename: fileStem(n.Title) + "." + string(format)}
	switch format {
	case FormatMD:
		doc.ContentType = "text/markdown; charset=utf-8"
		fmt.Fprintf(&b, "# %s\n\n> %s\n\n---\n\n", n.Title, n.Premise)
	case FormatTXT:
		doc.ContentType = "text/plain; charset=utf-8"
		fmt.Fprintf(&b, "《%s》\n\n简介：%s\n\n%s\n\n", n.Title, n.Premise, txtRule)
	default:
		return nil, apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("unknown export format %q", format))
	}

	rendered := 0
	for _, c := range n.Chapters {
		if !selected[c.ID] {
			continue
		}
		rendered++
		content := c.Content
		if content == "" {
			content = emptyContent
		}
		if format == FormatMD {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", c.Title, content)
		} else {
			fmt.Fprintf(&b, "【%s】\n\n%s\n\n\n%s\n\n", c.Title, content, txtDivider)
		}
	}

	if rendered == 0 {
		return nil, apperrors.ErrEmptySelection
	}
	doc.Body = []byte(b.String())
	return doc, nil
}

// fileStem 把标题转成单段文件名，路径分隔符与控制字符替换为下划线
func fileStem(title string) string {
	stem := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	stem = strings.Trim(stem, ".")
	if stem == "" {
		return defaultStem
	}
	return stem
}
