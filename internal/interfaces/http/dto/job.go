package dto

import (
	"wenshu-novel-api/internal/domain/entity"
)

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*entity.GenerationJob `json:"jobs"`
}

// ChangeEvent WebSocket 推送的书库变更
type ChangeEvent struct {
	Type      string `json:"type"`
	NovelID   string `json:"novelId"`
	ChapterID string `json:"chapterId,omitempty"`
	// At 毫秒时间戳
	At int64 `json:"at"`
}
