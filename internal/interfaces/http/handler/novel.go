package handler

import (
	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/interfaces/http/dto"
	"wenshu-novel-api/pkg/logger"
)

// NovelHandler 作品处理器
type NovelHandler struct {
	cfg     *config.Config
	libs    *library.Service
	stories *story.Service
}

// NewNovelHandler 创建作品处理器
func NewNovelHandler(cfg *config.Config, libs *library.Service, stories *story.Service) *NovelHandler {
	return &NovelHandler{cfg: cfg, libs: libs, stories: stories}
}

// ListNovels 书库列表
// @Router /v1/novels [get]
func (h *NovelHandler) ListNovels(c *gin.Context) {
	dto.Success(c, dto.ToNovelListResponse(h.libs.ListNovels(c.Request.Context())))
}

// CreateNovel 手动建书
// @Router /v1/novels [post]
func (h *NovelHandler) CreateNovel(c *gin.Context) {
	var req dto.CreateNovelRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.libs.CreateNovel(c.Request.Context(), req.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Created(c, n)
}

// SetupNovel 开书向导：同步生成首批大纲，剩余大纲转后台任务
// @Router /v1/novels/setup [post]
func (h *NovelHandler) SetupNovel(c *gin.Context) {
	var req dto.SetupNovelRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, err := withLLMSelection(c.Request.Context(), h.cfg, req.LLMSelectionRequest)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.stories.Setup(ctx, req.ToStory())
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info(logger.WithContext(ctx, logger.NovelIDKey, res.Novel.ID), "novel set up",
		"chapters", len(res.Novel.Chapters),
		"background", res.Job != nil,
	)
	dto.Accepted(c, res)
}

// GetNovel 作品详情
// @Router /v1/novels/{nid} [get]
func (h *NovelHandler) GetNovel(c *gin.Context) {
	n, err := h.libs.GetNovel(c.Request.Context(), dto.BindNovelID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, n)
}

// UpdateNovel 更新作品信息
// @Router /v1/novels/{nid} [put]
func (h *NovelHandler) UpdateNovel(c *gin.Context) {
	var req dto.UpdateNovelRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.libs.UpdateInfo(c.Request.Context(), dto.BindNovelID(c), req.ToPatch())
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, n)
}

// DeleteNovel 删除作品
// @Router /v1/novels/{nid} [delete]
func (h *NovelHandler) DeleteNovel(c *gin.Context) {
	if err := h.libs.DeleteNovel(c.Request.Context(), dto.BindNovelID(c)); err != nil {
		writeError(c, err)
		return
	}
	dto.NoContent(c)
}

// ReplaceCharacters 整体替换角色表
// @Router /v1/novels/{nid}/characters [put]
func (h *NovelHandler) ReplaceCharacters(c *gin.Context) {
	var req dto.ReplaceCharactersRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.libs.ReplaceCharacters(c.Request.Context(), dto.BindNovelID(c), req.Characters)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, n)
}
