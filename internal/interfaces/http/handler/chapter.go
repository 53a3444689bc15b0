package handler

import (
	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/interfaces/http/dto"
)

// ChapterHandler 章节编辑处理器
type ChapterHandler struct {
	libs *library.Service
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(libs *library.Service) *ChapterHandler {
	return &ChapterHandler{libs: libs}
}

// ListChapters 章节列表（含字数）
// @Router /v1/novels/{nid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	n, err := h.libs.GetNovel(c.Request.Context(), dto.BindNovelID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToChapterListResponse(n))
}

// ChapterGroups 章节导航分组
// @Router /v1/novels/{nid}/chapters/groups [get]
func (h *ChapterHandler) ChapterGroups(c *gin.Context) {
	n, err := h.libs.GetNovel(c.Request.Context(), dto.BindNovelID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, &dto.ChapterGroupsResponse{Groups: library.ChapterGroups(n)})
}

// AddChapter 在指定章节之后插入空白章节
// @Router /v1/novels/{nid}/chapters [post]
func (h *ChapterHandler) AddChapter(c *gin.Context) {
	var req dto.AddChapterRequest
	// 请求体可省略
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	ch, err := h.libs.AddChapter(c.Request.Context(), dto.BindNovelID(c), req.AfterID)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Created(c, ch)
}

// ReorderChapters 按给定 ID 排列重排章节
// @Router /v1/novels/{nid}/chapters/reorder [put]
func (h *ChapterHandler) ReorderChapters(c *gin.Context) {
	var req dto.ReorderChaptersRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.libs.ReorderChapters(c.Request.Context(), dto.BindNovelID(c), req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToChapterListResponse(n))
}

// GetChapter 章节详情
// @Router /v1/novels/{nid}/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ch, idx, err := h.libs.GetChapter(c.Request.Context(), dto.BindNovelID(c), dto.BindChapterID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch, idx))
}

// UpdateChapter 更新章节标题、大纲或正文
// @Router /v1/novels/{nid}/chapters/{cid} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	var req dto.UpdateChapterRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	nid, cid := dto.BindNovelID(c), dto.BindChapterID(c)
	if _, err := h.libs.UpdateChapter(ctx, nid, cid, req.ToPatch()); err != nil {
		writeError(c, err)
		return
	}
	ch, idx, err := h.libs.GetChapter(ctx, nid, cid)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch, idx))
}

// DeleteChapter 删除章节，返回新的当前章节
// @Router /v1/novels/{nid}/chapters/{cid} [delete]
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	active, err := h.libs.DeleteChapter(c.Request.Context(), dto.BindNovelID(c), dto.BindChapterID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, &dto.DeleteChapterResponse{ActiveChapterID: active})
}
