package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wenshu-novel-api/pkg/logger"
)

// TraceIDHeader 响应中回传的追踪 ID
const TraceIDHeader = "X-Trace-ID"

// Trace OpenTelemetry 追踪中间件，skipPaths 中的探针与指标端点不产生 span
func Trace(serviceName string, skipPaths ...string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !slices.Contains(skipPaths, r.URL.Path)
		}),
	)
}

// TraceContext 把 trace_id 写入日志上下文，并给 span 标上作品与章节
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if sc := span.SpanContext(); sc.IsValid() {
			traceID := sc.TraceID().String()
			c.Set("trace_id", traceID)
			c.Header(TraceIDHeader, traceID)

			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, sc.SpanID().String())
			c.Request = c.Request.WithContext(ctx)

			if nid := c.Param("nid"); nid != "" {
				span.SetAttributes(attribute.String("novel.id", nid))
			}
			if cid := c.Param("cid"); cid != "" {
				span.SetAttributes(attribute.String("chapter.id", cid))
			}
		}

		c.Next()
	}
}
