// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/interfaces/http/dto"
	"wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

// Recovery 捕获处理链中的 panic，记录堆栈后返回 1007
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered", fmt.Errorf("%v", rec),
				"route", c.FullPath(),
				"method", c.Request.Method,
				"stack", string(debug.Stack()),
			)
			// 流式响应已写出头部，只能断开
			if c.Writer.Written() {
				c.Abort()
				return
			}
			dto.Abort(c, errors.ErrInternalError)
		}()
		c.Next()
	}
}
