package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/export"
	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/interfaces/http/dto"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	libs *library.Service
}

// NewExportHandler 创建导出处理器
func NewExportHandler(libs *library.Service) *ExportHandler {
	return &ExportHandler{libs: libs}
}

// Export 以附件形式导出选中章节
// @Router /v1/novels/{nid}/export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if !bindJSON(c, &req) {
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := h.libs.GetNovel(c.Request.Context(), dto.BindNovelID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	doc, err := export.Render(n, req.ChapterIDs, format)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(doc.Filename)))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
