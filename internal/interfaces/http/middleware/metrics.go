package middleware

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wenshu-novel-api/pkg/metrics"
)

// Metrics Prometheus 指标采集中间件，skipPaths 不计入
// SSE 与 WebSocket 的耗时是整个连接时长，不记录响应大小
func Metrics(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if slices.Contains(skipPaths, path) {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}
		start := time.Now()

		c.Next()

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		if isStreaming(c) {
			return
		}
		if size := c.Writer.Size(); size > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

func isStreaming(c *gin.Context) bool {
	if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
