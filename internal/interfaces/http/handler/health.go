package handler

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthCheck 单项依赖检查
type HealthCheck func(ctx context.Context) error

const readyTimeout = 2 * time.Second

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version   string
	providers []string
	checks    map[string]HealthCheck
}

// NewHealthHandler 创建健康检查处理器，checks 中的依赖全部通过才算就绪
// providers 为已配置的 LLM 提供商，仅用于展示
func NewHealthHandler(version string, providers []string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, providers: providers, checks: checks}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string   `json:"status"`
	Version      string   `json:"version,omitempty"`
	LLMProviders []string `json:"llm_providers,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "ok",
		Version:      h.version,
		LLMProviders: h.providers,
	})
}

// Ready 并发执行全部依赖检查，任一失败返回 503
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	names := slices.Sorted(maps.Keys(h.checks))
	outcomes := make([]readinessCheck, len(names))

	// 检查函数的错误写入结果，不中断其他检查
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			start := time.Now()
			err := h.checks[name](ctx)
			outcomes[i] = readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				outcomes[i].Status, outcomes[i].Error = "error", err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := readinessResponse{Status: "ok", Checks: make(map[string]*readinessCheck, len(names))}
	code := http.StatusOK
	for i, name := range names {
		resp.Checks[name] = &outcomes[i]
		if outcomes[i].Error != "" {
			resp.Status, code = "not_ready", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, resp)
}

// Live 存活检查接口
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
