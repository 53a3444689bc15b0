package handler

import (
	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/interfaces/http/dto"
)

// GenerationHandler 大纲与正文生成处理器（非流式部分）
type GenerationHandler struct {
	cfg     *config.Config
	stories *story.Service
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(cfg *config.Config, stories *story.Service) *GenerationHandler {
	return &GenerationHandler{cfg: cfg, stories: stories}
}

// Brainstorm 章节灵感
// @Router /v1/novels/{nid}/chapters/{cid}/brainstorm [post]
func (h *GenerationHandler) Brainstorm(c *gin.Context) {
	var req dto.BrainstormRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, err := withLLMSelection(c.Request.Context(), h.cfg, req.LLMSelectionRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	text, err := h.stories.Brainstorm(ctx, dto.BindNovelID(c), dto.BindChapterID(c), req.Query, req.Excerpt)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, &dto.BrainstormResponse{Suggestion: text})
}

// BatchOutlines 启动批量大纲任务
// @Summary 批量生成大纲
// @Description 按固定批次生成 total 章大纲并插入到 insertAfterId 之后，返回后台任务
// @Tags Outlines
// @Accept json
// @Produce json
// @Param nid path string true "作品 ID"
// @Success 202 {object} dto.Response[entity.GenerationJob]
// @Failure 409 {object} dto.ErrorResponse "该作品已有运行中的任务"
// @Router /v1/novels/{nid}/outlines/batch [post]
func (h *GenerationHandler) BatchOutlines(c *gin.Context) {
	var req dto.BatchOutlineRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, err := withLLMSelection(c.Request.Context(), h.cfg, req.LLMSelectionRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	job, err := h.stories.StartOutlineBatch(ctx, req.ToStory(dto.BindNovelID(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Accepted(c, job)
}

// NextOutline AI 续写下一章大纲
// @Router /v1/novels/{nid}/outlines/next [post]
func (h *GenerationHandler) NextOutline(c *gin.Context) {
	var req dto.NextOutlineRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	ctx, err := withLLMSelection(c.Request.Context(), h.cfg, req.LLMSelectionRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	ch, err := h.stories.ContinueOutline(ctx, dto.BindNovelID(c), req.Direction)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Created(c, ch)
}

// BatchContents 启动批量正文任务
// @Router /v1/novels/{nid}/contents/batch [post]
func (h *GenerationHandler) BatchContents(c *gin.Context) {
	var req dto.BatchContentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, err := withLLMSelection(c.Request.Context(), h.cfg, req.LLMSelectionRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	job, err := h.stories.StartContentBatch(ctx, dto.BindNovelID(c), req.ChapterIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Accepted(c, job)
}
