// Package handler 提供 HTTP 请求处理器
package handler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/interfaces/http/dto"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

const (
	maxProviderLen = 32
	maxModelLen    = 64
)

// resolveProviderModel 请求未指定时依次回退到默认提供商与该提供商的默认模型
func resolveProviderModel(cfg *config.Config, provider, model string) (string, string, error) {
	if cfg == nil {
		return "", "", errors.New("server config not configured")
	}
	p := cmp.Or(strings.TrimSpace(provider), strings.TrimSpace(cfg.LLM.DefaultProvider))
	switch {
	case p == "":
		return "", "", errors.New("llm provider not specified")
	case len(p) > maxProviderLen:
		return "", "", fmt.Errorf("llm provider longer than %d bytes", maxProviderLen)
	}
	pc, ok := cfg.LLM.Providers[p]
	if !ok {
		return "", "", fmt.Errorf("llm provider %q not configured", p)
	}
	m := cmp.Or(strings.TrimSpace(model), strings.TrimSpace(pc.Model))
	if len(m) > maxModelLen {
		return "", "", fmt.Errorf("llm model longer than %d bytes", maxModelLen)
	}
	return p, m, nil
}

// withLLMSelection 把请求中的提供商与模型覆盖放入 context
func withLLMSelection(ctx context.Context, cfg *config.Config, sel dto.LLMSelectionRequest) (context.Context, error) {
	p, m, err := resolveProviderModel(cfg, sel.Provider, sel.Model)
	if err != nil {
		return ctx, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}
	return story.WithLLMSelection(ctx, story.LLMSelection{Provider: p, Model: m}), nil
}

// toAppError 生成失败映射为 4001，其余非 AppError 视为内部错误
func toAppError(err error) *apperrors.AppError {
	if story.IsGenerationFailure(err) {
		return apperrors.ErrGenerationFailed.WithDetail(err.Error())
	}
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}
	return apperrors.ErrInternalError.WithError(err)
}

// writeError 按 AppError 输出错误响应
func writeError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= 500 {
		logger.Error(c.Request.Context(), "request failed", err,
			"path", c.FullPath(),
			"error_code", string(appErr.Code),
		)
	}
	dto.Fail(c, appErr)
}

// bindJSON 绑定失败时直接写出 400
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		dto.BadRequest(c, err.Error())
		return false
	}
	return true
}
