package node

import "strings"

// BuildExcerptBlock 灵感咨询中的选中文段，为空时不输出
func BuildExcerptBlock(excerpt string) string {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return ""
	}
	return "针对选中文段：“" + excerpt + "”"
}
