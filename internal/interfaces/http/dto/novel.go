package dto

import (
	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/domain/entity"
)

// CreateNovelRequest 手动建书请求
type CreateNovelRequest struct {
	Title         string             `json:"title" binding:"required"`
	Premise       string             `json:"premise"`
	Genre         string             `json:"genre" binding:"required"`
	StyleKeywords []string           `json:"styleKeywords"`
	Characters    []entity.Character `json:"characters"`
}

// ToInput 转换为书库命令参数
func (r *CreateNovelRequest) ToInput() library.CreateNovelInput {
	return library.CreateNovelInput{
		Title:         r.Title,
		Premise:       r.Premise,
		Genre:         entity.Genre(r.Genre),
		StyleKeywords: r.StyleKeywords,
		Characters:    r.Characters,
	}
}

// UpdateNovelRequest 作品信息更新请求，缺省字段不修改
type UpdateNovelRequest struct {
	Title         *string   `json:"title"`
	Premise       *string   `json:"premise"`
	Genre         *string   `json:"genre"`
	StyleKeywords *[]string `json:"styleKeywords"`
}

// ToPatch 转换为作品补丁
func (r *UpdateNovelRequest) ToPatch() library.NovelPatch {
	patch := library.NovelPatch{
		Title:         r.Title,
		Premise:       r.Premise,
		StyleKeywords: r.StyleKeywords,
	}
	if r.Genre != nil {
		g := entity.Genre(*r.Genre)
		patch.Genre = &g
	}
	return patch
}

// ReplaceCharactersRequest 角色表整体替换请求
type ReplaceCharactersRequest struct {
	Characters []entity.Character `json:"characters"`
}

// SetupNovelRequest 开书向导请求
type SetupNovelRequest struct {
	Title         string  `json:"title" binding:"required"`
	Genre         string  `json:"genre" binding:"required"`
	Premise       string  `json:"premise"`
	TotalChapters int     `json:"totalChapters" binding:"required"`
	Coverage      float64 `json:"coverage"`
	LLMSelectionRequest
}

// ToStory 转换为开书向导参数
func (r *SetupNovelRequest) ToStory() story.SetupRequest {
	return story.SetupRequest{
		Title:         r.Title,
		Genre:         entity.Genre(r.Genre),
		Premise:       r.Premise,
		TotalChapters: r.TotalChapters,
		Coverage:      r.Coverage,
	}
}

// NovelSummary 书库列表项
type NovelSummary struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Genre        entity.Genre `json:"genre"`
	ChapterCount int          `json:"chapterCount"`
	Coverage     float64      `json:"coverage"`
	CreatedAt    int64        `json:"createdAt"`
}

// ToNovelSummary 作品转列表项
func ToNovelSummary(n *entity.Novel) *NovelSummary {
	return &NovelSummary{
		ID:           n.ID,
		Title:        n.Title,
		Genre:        n.Genre,
		ChapterCount: len(n.Chapters),
		Coverage:     n.Coverage(),
		CreatedAt:    n.CreatedAt,
	}
}

// NovelListResponse 书库列表响应
type NovelListResponse struct {
	Novels []*NovelSummary `json:"novels"`
}

// ToNovelListResponse 按书库顺序转换列表
func ToNovelListResponse(novels []*entity.Novel) *NovelListResponse {
	out := make([]*NovelSummary, 0, len(novels))
	for _, n := range novels {
		out = append(out, ToNovelSummary(n))
	}
	return &NovelListResponse{Novels: out}
}
