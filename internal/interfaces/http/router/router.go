// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/interfaces/http/handler"
	"wenshu-novel-api/internal/interfaces/http/middleware"
)

// RouterHandlers 路由依赖的全部处理器
type RouterHandlers struct {
	Health     *handler.HealthHandler
	Novel      *handler.NovelHandler
	Chapter    *handler.ChapterHandler
	Stream     *handler.StreamHandler
	Generation *handler.GenerationHandler
	Job        *handler.JobHandler
	Export     *handler.ExportHandler
	Event      *handler.EventHandler
}

// Router 持有 gin 引擎，构造时完成中间件与路由注册
type Router struct {
	engine *gin.Engine
}

// NewWithDeps limiter 为 nil 时生成类接口不限流
func NewWithDeps(cfg *config.Config, handlers RouterHandlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	obs := cfg.Observability

	// 探针与指标端点不追踪、不计数
	quiet := []string{"/health", "/ready", "/live", obs.Metrics.Path}
	e.Use(middleware.Recovery(), middleware.RequestID(), middleware.CORS(cfg.Security.CORS))
	if obs.Tracing.Enabled {
		e.Use(middleware.Trace(cfg.App.Name, quiet...), middleware.TraceContext())
	}
	if obs.Metrics.Enabled {
		e.Use(middleware.Metrics(quiet...))
		e.GET(obs.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	e.GET("/health", handlers.Health.Health)
	e.GET("/ready", handlers.Health.Ready)
	e.GET("/live", handlers.Health.Live)

	rl := cfg.Security.RateLimit
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled: rl.Enabled,
		Limit:   rl.Limit,
		Window:  rl.Window,
	}, limiter)
	RegisterV1Routes(e.Group("/v1"), handlers, limit)

	return &Router{engine: e}
}

// Engine 作为 http.Server 的 Handler
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
