// Package entity 定义领域实体
package entity

import (
	"strings"
	"unicode"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft      ChapterStatus = "DRAFT"
	ChapterStatusGenerating ChapterStatus = "GENERATING"
	ChapterStatusCompleted  ChapterStatus = "COMPLETED"
)

// DefaultChapterTitle 手动新增章节的默认标题
const DefaultChapterTitle = "新章节"

// Chapter 章节实体
type Chapter struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Outline string        `json:"outline"`
	Content string        `json:"content"`
	Status  ChapterStatus `json:"status"`
}

// NewChapter 创建草稿章节
func NewChapter(title, outline string) Chapter {
	return Chapter{
		ID:      NewChapterID(),
		Title:   title,
		Outline: outline,
		Status:  ChapterStatusDraft,
	}
}

// HasOutline 细纲非空
func (c *Chapter) HasOutline() bool {
	return strings.TrimSpace(c.Outline) != ""
}

// BeginGeneration 进入生成中并清空正文
func (c *Chapter) BeginGeneration() {
	c.Status = ChapterStatusGenerating
	c.Content = ""
}

// AppendContent 追加流式片段
func (c *Chapter) AppendContent(chunk string) {
	c.Content += chunk
}

// Complete 生成完成
func (c *Chapter) Complete() {
	c.Status = ChapterStatusCompleted
}

// Revert 生成失败回退为草稿，保留已生成部分
func (c *Chapter) Revert() {
	c.Status = ChapterStatusDraft
}

// IsGenerating 是否生成中
func (c *Chapter) IsGenerating() bool {
	return c.Status == ChapterStatusGenerating
}

// WordCount 非空白字符数
func (c *Chapter) WordCount() int {
	n := 0
	for _, r := range c.Content {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
