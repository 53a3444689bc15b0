package dto

import (
	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
)

// ChapterItem 章节列表项，不含正文
type ChapterItem struct {
	ID         string               `json:"id"`
	Index      int                  `json:"index"`
	Title      string               `json:"title"`
	Outline    string               `json:"outline"`
	Status     entity.ChapterStatus `json:"status"`
	WordCount  int                  `json:"wordCount"`
	HasOutline bool                 `json:"hasOutline"`
}

// ChapterListResponse 章节列表响应
type ChapterListResponse struct {
	Chapters   []*ChapterItem `json:"chapters"`
	TotalWords int            `json:"totalWords"`
}

// ToChapterListResponse 按阅读顺序转换章节列表
func ToChapterListResponse(n *entity.Novel) *ChapterListResponse {
	resp := &ChapterListResponse{Chapters: make([]*ChapterItem, 0, len(n.Chapters))}
	for i := range n.Chapters {
		ch := &n.Chapters[i]
		words := ch.WordCount()
		resp.TotalWords += words
		resp.Chapters = append(resp.Chapters, &ChapterItem{
			ID:         ch.ID,
			Index:      i + 1,
			Title:      ch.Title,
			Outline:    ch.Outline,
			Status:     ch.Status,
			WordCount:  words,
			HasOutline: ch.HasOutline(),
		})
	}
	return resp
}

// ChapterResponse 章节详情
type ChapterResponse struct {
	*entity.Chapter
	Index     int `json:"index"`
	WordCount int `json:"wordCount"`
}

// ToChapterResponse idx 为 0 起始下标
func ToChapterResponse(ch *entity.Chapter, idx int) *ChapterResponse {
	return &ChapterResponse{Chapter: ch, Index: idx + 1, WordCount: ch.WordCount()}
}

// ChapterGroupsResponse 章节导航分组响应
type ChapterGroupsResponse struct {
	Groups []library.ChapterGroup `json:"groups"`
}

// AddChapterRequest 新增章节请求，AfterID 为空时追加到末尾
type AddChapterRequest struct {
	AfterID string `json:"afterId"`
}

// UpdateChapterRequest 章节更新请求，缺省字段不修改
type UpdateChapterRequest struct {
	Title   *string `json:"title"`
	Outline *string `json:"outline"`
	Content *string `json:"content"`
}

// ToPatch 转换为章节补丁
func (r *UpdateChapterRequest) ToPatch() library.ChapterPatch {
	return library.ChapterPatch{Title: r.Title, Outline: r.Outline, Content: r.Content}
}

// ReorderChaptersRequest 章节重排请求，须为全部章节 ID 的一个排列
type ReorderChaptersRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// DeleteChapterResponse 删除章节响应
type DeleteChapterResponse struct {
	ActiveChapterID string `json:"activeChapterId"`
}
