package handler

import (
	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/interfaces/http/dto"
)

// JobHandler 任务处理器
type JobHandler struct {
	stories *story.Service
}

// NewJobHandler 创建任务处理器
func NewJobHandler(stories *story.Service) *JobHandler {
	return &JobHandler{stories: stories}
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Description 获取后台生成任务的状态、进度与结果
// @Tags Jobs
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[entity.GenerationJob]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.stories.Job(c.Request.Context(), dto.BindJobID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, job)
}

// ListNovelJobs 作品下的任务，最新在前
// @Router /v1/novels/{nid}/jobs [get]
func (h *JobHandler) ListNovelJobs(c *gin.Context) {
	jobs, err := h.stories.Jobs(c.Request.Context(), dto.BindNovelID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dto.Success(c, &dto.JobListResponse{Jobs: jobs})
}
