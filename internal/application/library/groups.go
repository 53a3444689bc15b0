package library

import (
	"fmt"

	"wenshu-novel-api/internal/domain/entity"
)

// ChapterGroup 章节导航分组，Start/End 为 1 起始的章节序号
// 超过 100 章时顶层按 100 章分组，每组再按 10 章细分
type ChapterGroup struct {
	Label      string         `json:"label"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	ChapterIDs []string       `json:"chapterIds,omitempty"`
	SubGroups  []ChapterGroup `json:"subGroups,omitempty"`
}

// ChapterGroups 按阅读顺序切分章节导航分组
func ChapterGroups(n *entity.Novel) []ChapterGroup {
	total := len(n.Chapters)
	if total <= 100 {
		return splitGroups(n.Chapters, 0, 10)
	}
	groups := make([]ChapterGroup, 0, (total+99)/100)
	for start := 0; start < total; start += 100 {
		end := min(start+100, total)
		groups = append(groups, ChapterGroup{
			Label:     groupLabel(start, end),
			Start:     start + 1,
			End:       end,
			SubGroups: splitGroups(n.Chapters[start:end], start, 10),
		})
	}
	return groups
}

// splitGroups offset 为 chapters[0] 在全书中的下标
func splitGroups(chapters []entity.Chapter, offset, size int) []ChapterGroup {
	groups := make([]ChapterGroup, 0, (len(chapters)+size-1)/size)
	for i := 0; i < len(chapters); i += size {
		j := min(i+size, len(chapters))
		ids := make([]string, 0, j-i)
		for _, c := range chapters[i:j] {
			ids = append(ids, c.ID)
		}
		groups = append(groups, ChapterGroup{
			Label:      groupLabel(offset+i, offset+j),
			Start:      offset + i + 1,
			End:        offset + j,
			ChapterIDs: ids,
		})
	}
	return groups
}

func groupLabel(start, end int) string {
	return fmt.Sprintf("第 %d - %d 章", start+1, end)
}
