package story

import (
	"fmt"
	"strconv"
	"strings"

	"wenshu-novel-api/internal/domain/entity"
	wfnode "wenshu-novel-api/internal/workflow/node"
)

// 首章没有可衔接的上文
const firstChapterMarker = "【首章开卷】"

// Grounding 生成提示词中的作品档案参数
type Grounding struct {
	// RecencyWindow 作品档案附带的最近章节数
	RecencyWindow int
	// OutlineWindow 批量大纲插入点之前附带的前情章节数
	OutlineWindow int
	// PrevTailRunes 上章结尾截取字数
	PrevTailRunes int
}

// DefaultGrounding 默认档案参数
func DefaultGrounding() Grounding {
	return Grounding{RecencyWindow: 5, OutlineWindow: 15, PrevTailRunes: 1500}
}

// NovelContext 作品档案：设定、专有名词、角色库与最近剧情
func (g Grounding) NovelContext(n *entity.Novel) string {
	var b strings.Builder
	b.WriteString("【当前作品档案 - 必须严格遵守】\n")
	fmt.Fprintf(&b, "书名：《%s》\n", n.Title)
	fmt.Fprintf(&b, "题材：%s\n", n.Genre)
	fmt.Fprintf(&b, "核心设定：%s\n", n.Premise)
	fmt.Fprintf(&b, "当前总进度：%s%%\n", formatNumber(n.Coverage()))

	b.WriteString("\n【已定专有名词（严禁更改）】\n")
	b.WriteString(strings.Join(n.ProperNouns(), "、"))
	b.WriteString("\n")

	b.WriteString("\n【核心角色库】\n")
	for _, c := range n.Characters {
		fmt.Fprintf(&b, "- %s [%s]: %s\n", c.Name, c.Role, c.Description)
	}

	b.WriteString("\n【最近剧情逻辑（用于确保连贯性）】\n")
	recent := n.Chapters
	if g.RecencyWindow >= 0 && len(recent) > g.RecencyWindow {
		recent = recent[len(recent)-g.RecencyWindow:]
	}
	for _, c := range recent {
		fmt.Fprintf(&b, "章节: %s | 关键事件: %s\n", c.Title, c.Outline)
	}
	return b.String()
}

// InsertionIndex 批量大纲的插入锚点下标
// afterID 为空或不存在时取最后一章；无章节时为 -1
func InsertionIndex(n *entity.Novel, afterID string) int {
	if afterID != "" {
		if i := n.ChapterIndex(afterID); i >= 0 {
			return i
		}
	}
	return len(n.Chapters) - 1
}

// PrecedingWindow 插入点及其之前的前情章节，按全书序号编号
func (g Grounding) PrecedingWindow(n *entity.Novel, idx int) string {
	if idx < 0 || len(n.Chapters) == 0 {
		return "（暂无前情）"
	}
	start := max(0, idx-g.OutlineWindow)
	lines := make([]string, 0, idx-start+1)
	for i := start; i <= idx; i++ {
		c := n.Chapters[i]
		lines = append(lines, fmt.Sprintf("[第 %d 章] %s: %s", i+1, c.Title, c.Outline))
	}
	return strings.Join(lines, "\n")
}

// PreviousTail 上章结尾衔接块，上章无正文时为首章标记
func (g Grounding) PreviousTail(n *entity.Novel, idx int) string {
	if idx <= 0 || idx > len(n.Chapters) {
		return firstChapterMarker
	}
	prev := n.Chapters[idx-1].Content
	if prev == "" {
		return firstChapterMarker
	}
	return "\n【必须衔接的上章结尾】：\n..." + wfnode.TailByRunes(prev, g.PrevTailRunes) + "\n"
}

// FormatProgress 第 idx 章的进度百分比，保留一位小数
func FormatProgress(n *entity.Novel, idx int) string {
	return strconv.FormatFloat(n.ChapterProgress(idx), 'f', 1, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
