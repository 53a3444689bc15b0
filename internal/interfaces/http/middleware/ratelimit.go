// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/infrastructure/persistence/redis"
	"wenshu-novel-api/internal/interfaces/http/dto"
	"wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit int
	// Window 滑动窗口长度
	Window time.Duration
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (redis.RateDecision, error)
}

// RateLimit 限流中间件，按客户端 IP 与路由模板计数
// 通过时返回 X-RateLimit-Remaining，拒绝时返回 Retry-After
func RateLimit(cfg RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 30
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := redis.BuildRateLimitKey(c.ClientIP(), c.FullPath())

		d, err := limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			logger.Warn(c.Request.Context(), "rate limited", "route", c.FullPath(), "client", c.ClientIP())
			dto.Abort(c, errors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
