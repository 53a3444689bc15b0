package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/internal/interfaces/http/dto"
	"wenshu-novel-api/pkg/logger"
)

// StreamHandler 单章正文流式生成处理器
type StreamHandler struct {
	cfg     *config.Config
	stories *story.Service
}

// NewStreamHandler 创建流式生成处理器
func NewStreamHandler(cfg *config.Config, stories *story.Service) *StreamHandler {
	return &StreamHandler{cfg: cfg, stories: stories}
}

type generateResult struct {
	chapter *entity.Chapter
	err     error
}

// GenerateChapter 流式生成章节正文
// @Summary 流式生成章节正文
// @Description 通过 SSE 推送 content 事件，结束时推送 done 或 error 事件。客户端断开后生成仍会完成并落库
// @Tags Chapters
// @Accept json
// @Produce text/event-stream
// @Param nid path string true "作品 ID"
// @Param cid path string true "章节 ID"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse "大纲为空"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/novels/{nid}/chapters/{cid}/generate [post]
func (h *StreamHandler) GenerateChapter(c *gin.Context) {
	var req dto.GenerateChapterRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	nid, cid := dto.BindNovelID(c), dto.BindChapterID(c)

	// 写出响应头之后无法再返回 4xx
	if err := h.stories.CheckGeneratable(nid, cid); err != nil {
		writeError(c, err)
		return
	}
	ctx, err := withLLMSelection(c.Request.Context(), h.cfg, req.LLMSelectionRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	genCtx := logger.WithContext(context.WithoutCancel(ctx), logger.NovelIDKey, nid)

	chunks := make(chan string, 64)
	done := make(chan generateResult, 1)
	gone := make(chan struct{})
	defer close(gone)

	go func() {
		ch, err := h.stories.GenerateChapter(genCtx, nid, cid, req.Instruction, func(chunk string) {
			select {
			case chunks <- chunk:
			case <-gone:
			}
		})
		done <- generateResult{chapter: ch, err: err}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	index := 0
	emit := func(chunk string) {
		c.SSEvent("content", dto.ContentChunkEvent{Chunk: chunk, Index: index})
		index++
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case chunk := <-chunks:
			emit(chunk)
			return true

		case res := <-done:
			// 结果送达时回调已全部返回，缓冲区里剩下的就是最后几块
			for drained := false; !drained; {
				select {
				case chunk := <-chunks:
					emit(chunk)
				default:
					drained = true
				}
			}
			if res.err != nil {
				appErr := toAppError(res.err)
				c.SSEvent("error", dto.StreamErrorEvent{
					ErrorCode: string(appErr.Code),
					Message:   appErr.Message,
				})
				return false
			}
			c.SSEvent("done", dto.ContentDoneEvent{
				ChapterID: res.chapter.ID,
				WordCount: res.chapter.WordCount(),
			})
			return false

		case <-c.Request.Context().Done():
			logger.Warn(genCtx, "client disconnected during generation, continuing in background", "chapter_id", cid)
			return false
		}
	})
}
