package entity

import "github.com/google/uuid"

// ID 前缀
const (
	NovelIDPrefix   = "novel-"
	ChapterIDPrefix = "chap-"
	JobIDPrefix     = "job-"
)

// NewNovelID 生成作品 ID
func NewNovelID() string {
	return NovelIDPrefix + uuid.NewString()
}

// NewChapterID 生成章节 ID
func NewChapterID() string {
	return ChapterIDPrefix + uuid.NewString()
}

// NewJobID 生成任务 ID
func NewJobID() string {
	return JobIDPrefix + uuid.NewString()
}
