// Package service 定义跨层共享的调用约定
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
	llmCtxKeyNovel    llmCtxKey = "llm_novel"
)

const unknown = "unknown"

// 工作流名称，作为 LLM 指标的 workflow 标签
const (
	WorkflowNovelOutline  = "novel_outline"
	WorkflowBatchOutline  = "batch_outline"
	WorkflowSingleOutline = "single_outline"
	WorkflowChapterStream = "chapter_stream"
	WorkflowBrainstorm    = "brainstorm"
)

func withValue(ctx context.Context, key llmCtxKey, v string) context.Context {
	if ctx == nil {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueOr(ctx context.Context, key llmCtxKey, def string) string {
	if ctx == nil {
		return def
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return def
	}
	return s
}

// WithWorkflowProvider 标记本次调用所属工作流与提供商
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return withValue(withValue(ctx, llmCtxKeyWorkflow, workflow), llmCtxKeyProvider, provider)
}

// WithNovel 标记本次调用所属作品
func WithNovel(ctx context.Context, novelID string) context.Context {
	return withValue(ctx, llmCtxKeyNovel, novelID)
}

func WorkflowFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyWorkflow, unknown)
}

func ProviderFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyProvider, unknown)
}

// NovelFromContext 未标记时返回空串
func NovelFromContext(ctx context.Context) string {
	return valueOr(ctx, llmCtxKeyNovel, "")
}
