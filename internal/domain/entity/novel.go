package entity

import (
	"time"
)

// Novel 作品实体，章节顺序即阅读顺序
type Novel struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Premise       string      `json:"premise"`
	Genre         Genre       `json:"genre"`
	StyleKeywords []string    `json:"styleKeywords"`
	Characters    []Character `json:"characters"`
	Chapters      []Chapter   `json:"chapters"`
	// CreatedAt 毫秒时间戳
	CreatedAt int64 `json:"createdAt"`
	// CurrentCoverage 大纲覆盖进度，0-100，未设置时为 nil
	CurrentCoverage *float64 `json:"currentCoverage,omitempty"`
}

// NewNovel 创建作品
func NewNovel(title, premise string, genre Genre) *Novel {
	return &Novel{
		ID:            NewNovelID(),
		Title:         title,
		Premise:       premise,
		Genre:         genre,
		StyleKeywords: []string{},
		Characters:    []Character{},
		Chapters:      []Chapter{},
		CreatedAt:     time.Now().UnixMilli(),
	}
}

// ChapterIndex 返回章节下标，不存在时返回 -1
func (n *Novel) ChapterIndex(id string) int {
	for i := range n.Chapters {
		if n.Chapters[i].ID == id {
			return i
		}
	}
	return -1
}

// Chapter 按 ID 查找章节，返回的指针指向切片元素
func (n *Novel) Chapter(id string) (*Chapter, bool) {
	if i := n.ChapterIndex(id); i >= 0 {
		return &n.Chapters[i], true
	}
	return nil, false
}

// LastChapterID 最后一章 ID，无章节时为空
func (n *Novel) LastChapterID() string {
	if len(n.Chapters) == 0 {
		return ""
	}
	return n.Chapters[len(n.Chapters)-1].ID
}

// InsertChaptersAfter 在 afterID 之后插入章节
// afterID 为空或不存在时追加到末尾；返回首个插入章节的下标
func (n *Novel) InsertChaptersAfter(afterID string, chapters ...Chapter) int {
	pos := len(n.Chapters)
	if afterID != "" {
		if i := n.ChapterIndex(afterID); i >= 0 {
			pos = i + 1
		}
	}
	merged := make([]Chapter, 0, len(n.Chapters)+len(chapters))
	merged = append(merged, n.Chapters[:pos]...)
	merged = append(merged, chapters...)
	merged = append(merged, n.Chapters[pos:]...)
	n.Chapters = merged
	return pos
}

// RemoveChapter 删除章节，返回相邻章节 ID（优先后一章）
func (n *Novel) RemoveChapter(id string) (string, bool) {
	i := n.ChapterIndex(id)
	if i < 0 {
		return "", false
	}
	n.Chapters = append(n.Chapters[:i:i], n.Chapters[i+1:]...)
	switch {
	case i < len(n.Chapters):
		return n.Chapters[i].ID, true
	case i > 0:
		return n.Chapters[i-1].ID, true
	default:
		return "", true
	}
}

// Reorder 按给定 ID 排列重排章节，ids 必须是现有章节的完整排列
func (n *Novel) Reorder(ids []string) bool {
	if len(ids) != len(n.Chapters) {
		return false
	}
	byID := make(map[string]Chapter, len(n.Chapters))
	for _, c := range n.Chapters {
		byID[c.ID] = c
	}
	reordered := make([]Chapter, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return false
		}
		delete(byID, id)
		reordered = append(reordered, c)
	}
	n.Chapters = reordered
	return true
}

// Coverage 当前覆盖进度，未设置视为 0
func (n *Novel) Coverage() float64 {
	if n.CurrentCoverage == nil {
		return 0
	}
	return *n.CurrentCoverage
}

// SetCoverage 设置覆盖进度，限制在 [0, 100]
func (n *Novel) SetCoverage(v float64) {
	v = ClampCoverage(v)
	n.CurrentCoverage = &v
}

// ClampCoverage 将覆盖进度限制在 [0, 100]
func ClampCoverage(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// ProperNouns 已定专有名词：书名与全部角色名
func (n *Novel) ProperNouns() []string {
	nouns := make([]string, 0, len(n.Characters)+1)
	nouns = append(nouns, n.Title)
	for _, c := range n.Characters {
		nouns = append(nouns, c.Name)
	}
	return nouns
}

// ChapterProgress 第 idx 章在全书中的位置百分比
func (n *Novel) ChapterProgress(idx int) float64 {
	if len(n.Chapters) == 0 {
		return 0
	}
	return float64(idx+1) / float64(len(n.Chapters)) * 100
}

// Clone 深拷贝
func (n *Novel) Clone() *Novel {
	if n == nil {
		return nil
	}
	cp := *n
	cp.StyleKeywords = append([]string{}, n.StyleKeywords...)
	cp.Characters = append([]Character{}, n.Characters...)
	cp.Chapters = append([]Chapter{}, n.Chapters...)
	if n.CurrentCoverage != nil {
		v := *n.CurrentCoverage
		cp.CurrentCoverage = &v
	}
	return &cp
}
