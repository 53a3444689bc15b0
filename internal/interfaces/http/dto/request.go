// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/gin-gonic/gin"
)

// LLMSelectionRequest 生成类请求可选的提供商与模型覆盖
type LLMSelectionRequest struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// BindNovelID 从 URI 绑定作品 ID
func BindNovelID(c *gin.Context) string {
	return c.Param("nid")
}

// BindChapterID 从 URI 绑定章节 ID
func BindChapterID(c *gin.Context) string {
	return c.Param("cid")
}

// BindJobID 从 URI 绑定任务 ID
func BindJobID(c *gin.Context) string {
	return c.Param("jid")
}
