package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wenshu-novel-api/pkg/logger"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestID 注入请求 ID，并把路由中的作品与任务 ID 带进日志上下文
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID)
		if nid := c.Param("nid"); nid != "" {
			ctx = logger.WithContext(ctx, logger.NovelIDKey, nid)
		}
		if jid := c.Param("jid"); jid != "" {
			ctx = logger.WithContext(ctx, logger.JobIDKey, jid)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
