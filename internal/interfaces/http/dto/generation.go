package dto

import (
	"wenshu-novel-api/internal/application/story"
)

// GenerateChapterRequest 单章正文生成请求，Instruction 为空时使用默认指令
type GenerateChapterRequest struct {
	Instruction string `json:"instruction"`
	LLMSelectionRequest
}

// ContentChunkEvent SSE content 事件
type ContentChunkEvent struct {
	Chunk string `json:"chunk"`
	Index int    `json:"index"`
}

// ContentDoneEvent SSE done 事件
type ContentDoneEvent struct {
	ChapterID string `json:"chapterId"`
	WordCount int    `json:"wordCount"`
}

// StreamErrorEvent SSE error 事件
type StreamErrorEvent struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// BrainstormRequest 灵感请求
type BrainstormRequest struct {
	Query   string `json:"query" binding:"required"`
	Excerpt string `json:"excerpt"`
	LLMSelectionRequest
}

// BrainstormResponse 灵感响应
type BrainstormResponse struct {
	Suggestion string `json:"suggestion"`
}

// BatchOutlineRequest 批量大纲请求
type BatchOutlineRequest struct {
	Total          int     `json:"total" binding:"required"`
	Direction      string  `json:"direction"`
	InsertAfterID  string  `json:"insertAfterId"`
	TargetCoverage float64 `json:"targetCoverage"`
	LLMSelectionRequest
}

// ToStory 绑定作品 ID 后转换为序列参数
func (r *BatchOutlineRequest) ToStory(novelID string) story.BatchOutlineRequest {
	return story.BatchOutlineRequest{
		NovelID:        novelID,
		Total:          r.Total,
		Direction:      r.Direction,
		InsertAfterID:  r.InsertAfterID,
		TargetCoverage: r.TargetCoverage,
	}
}

// NextOutlineRequest AI 续写单章大纲请求
type NextOutlineRequest struct {
	Direction string `json:"direction"`
	LLMSelectionRequest
}

// BatchContentRequest 批量正文请求
type BatchContentRequest struct {
	ChapterIDs []string `json:"chapterIds"`
	LLMSelectionRequest
}

// ExportRequest 导出请求，Format 为 txt 或 md，缺省 txt
type ExportRequest struct {
	ChapterIDs []string `json:"chapterIds"`
	Format     string   `json:"format"`
}
