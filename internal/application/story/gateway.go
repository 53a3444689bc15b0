// Package story 编排小说生成流程：生成网关、批量大纲与正文序列、开书向导与后台任务
package story

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"wenshu-novel-api/internal/domain/entity"
	llmctx "wenshu-novel-api/internal/domain/service"
	"wenshu-novel-api/internal/workflow/chain"
	wfmodel "wenshu-novel-api/internal/workflow/model"
	workflowport "wenshu-novel-api/internal/workflow/port"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
	"wenshu-novel-api/pkg/tracer"
)

// 网关操作名
const (
	OpNovelOutline  = "generate_novel_outline"
	OpBatchOutlines = "generate_batch_outlines"
	OpSingleOutline = "generate_single_chapter_outline"
	OpRefineContent = "refine_chapter_content"
	OpBrainstorm    = "brainstorm_idea"
)

// BrainstormFallback 模型返回空内容时的占位文本
const BrainstormFallback = "文枢正在查阅资料库..."

// GenerationFailure 外部生成服务调用失败
type GenerationFailure struct {
	Op  string
	Err error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Err
}

// IsGenerationFailure 错误链中是否包含 GenerationFailure
func IsGenerationFailure(err error) bool {
	var gf *GenerationFailure
	return errors.As(err, &gf)
}

// Outline 单章大纲
type Outline struct {
	Title   string `json:"title"`
	Outline string `json:"outline"`
}

// NovelOutline 开书架构结果
type NovelOutline struct {
	Characters []entity.Character `json:"characters"`
	Chapters   []Outline          `json:"chapters"`
}

// NovelOutlineRequest 开书架构参数
type NovelOutlineRequest struct {
	Title         string
	Genre         entity.Genre
	Premise       string
	TotalChapters int
	Coverage      float64
}

// Generator 生成网关的五个操作
type Generator interface {
	GenerateNovelOutline(ctx context.Context, req NovelOutlineRequest) (*NovelOutline, error)
	GenerateBatchOutlines(ctx context.Context, novel *entity.Novel, batchSize int, direction, insertAfterID string, targetCoverage float64) ([]Outline, error)
	GenerateSingleChapterOutline(ctx context.Context, novel *entity.Novel, direction string) (*Outline, error)
	RefineChapterContent(ctx context.Context, novel *entity.Novel, chapterID, instruction string, onChunk func(string)) (string, error)
	BrainstormIdea(ctx context.Context, novel *entity.Novel, chapter *entity.Chapter, query, excerpt string) (string, error)
}

// GatewayConfig 网关参数
type GatewayConfig struct {
	Grounding Grounding
	// InitialOutlineCap 开书时首批大纲上限
	InitialOutlineCap  int
	OutlineTemperature float32
	ContentTemperature float32
}

// Gateway 基于 eino 调用链的生成网关
type Gateway struct {
	cfg GatewayConfig

	novelOutline *chain.NovelOutlineChain
	outline      *chain.OutlineChain
	chapter      *chain.ChapterChain
	brainstorm   *chain.BrainstormChain
}

// NewGateway 创建生成网关
func NewGateway(factory workflowport.ChatModelFactory, cfg GatewayConfig) *Gateway {
	if cfg.InitialOutlineCap <= 0 {
		cfg.InitialOutlineCap = 15
	}
	return &Gateway{
		cfg:          cfg,
		novelOutline: chain.NewNovelOutlineChain(factory),
		outline:      chain.NewOutlineChain(factory),
		chapter:      chain.NewChapterChain(factory),
		brainstorm:   chain.NewBrainstormChain(factory),
	}
}

type llmSelectionKey struct{}

// LLMSelection 请求级别的提供商与模型覆盖
type LLMSelection struct {
	Provider string
	Model    string
}

// WithLLMSelection 在 context 中携带提供商与模型覆盖，后台任务沿用发起请求时的选择
func WithLLMSelection(ctx context.Context, sel LLMSelection) context.Context {
	return context.WithValue(ctx, llmSelectionKey{}, sel)
}

func llmOptionsFrom(ctx context.Context) wfmodel.LLMOptions {
	sel, _ := ctx.Value(llmSelectionKey{}).(LLMSelection)
	return wfmodel.LLMOptions{Provider: sel.Provider, Model: sel.Model}
}

// fail 统一记录并包装网关失败
func (g *Gateway) fail(ctx context.Context, op string, err error) error {
	metrics.GenerationFailures.WithLabelValues(op).Inc()
	logger.Error(ctx, "generation gateway call failed", err, "op", op)
	return &GenerationFailure{Op: op, Err: err}
}

// GenerateNovelOutline 生成角色表与首批大纲，首批章数不超过上限
func (g *Gateway) GenerateNovelOutline(ctx context.Context, req NovelOutlineRequest) (*NovelOutline, error) {
	ctx, span := tracer.Start(ctx, "story.Gateway.GenerateNovelOutline")
	defer span.End()

	count := min(req.TotalChapters, g.cfg.InitialOutlineCap)
	out, err := g.novelOutline.Invoke(ctx, &wfmodel.NovelOutlineInput{
		LLMOptions:    llmOptionsFrom(ctx),
		Title:         req.Title,
		Genre:         string(req.Genre),
		Premise:       req.Premise,
		TotalChapters: req.TotalChapters,
		Count:         count,
		Coverage:      req.Coverage,
	})
	if err != nil {
		return nil, tracer.RecordError(span, g.fail(ctx, OpNovelOutline, err))
	}

	result := &NovelOutline{
		Characters: make([]entity.Character, 0, len(out.Characters)),
		Chapters:   cleanOutlines(out.Chapters, count),
	}
	for _, c := range out.Characters {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		result.Characters = append(result.Characters, entity.Character{
			Name:        strings.TrimSpace(c.Name),
			Role:        strings.TrimSpace(c.Role),
			Description: strings.TrimSpace(c.Description),
		})
	}
	return result, nil
}

// GenerateBatchOutlines 在插入点之后续写至多 batchSize 章大纲
func (g *Gateway) GenerateBatchOutlines(ctx context.Context, novel *entity.Novel, batchSize int, direction, insertAfterID string, targetCoverage float64) ([]Outline, error) {
	ctx, span := tracer.Start(ctx, "story.Gateway.GenerateBatchOutlines")
	defer span.End()

	idx := InsertionIndex(novel, insertAfterID)
	items, err := g.outline.Batch(llmctx.WithNovel(ctx, novel.ID), &wfmodel.BatchOutlineInput{
		LLMOptions:     llmOptionsFrom(ctx).WithTemperature(g.cfg.OutlineTemperature),
		NovelContext:   g.cfg.Grounding.NovelContext(novel),
		Preceding:      g.cfg.Grounding.PrecedingWindow(novel, idx),
		Count:          batchSize,
		StartNumber:    idx + 2,
		TargetCoverage: targetCoverage,
		Direction:      direction,
	})
	if err != nil {
		return nil, tracer.RecordError(span, g.fail(ctx, OpBatchOutlines, err))
	}
	return cleanOutlines(items, batchSize), nil
}

// GenerateSingleChapterOutline 续写下一章大纲
func (g *Gateway) GenerateSingleChapterOutline(ctx context.Context, novel *entity.Novel, direction string) (*Outline, error) {
	ctx, span := tracer.Start(ctx, "story.Gateway.GenerateSingleChapterOutline")
	defer span.End()

	item, err := g.outline.Single(llmctx.WithNovel(ctx, novel.ID), &wfmodel.SingleOutlineInput{
		LLMOptions:   llmOptionsFrom(ctx),
		NovelContext: g.cfg.Grounding.NovelContext(novel),
		Direction:    direction,
		NextNumber:   len(novel.Chapters) + 1,
	})
	if err != nil {
		return nil, tracer.RecordError(span, g.fail(ctx, OpSingleOutline, err))
	}
	cleaned := cleanOutlines([]wfmodel.OutlineItem{*item}, 1)
	if len(cleaned) == 0 {
		return nil, tracer.RecordError(span, g.fail(ctx, OpSingleOutline, fmt.Errorf("empty outline returned")))
	}
	return &cleaned[0], nil
}

// RefineChapterContent 流式生成章节正文，每个片段回调 onChunk，返回完整文本
func (g *Gateway) RefineChapterContent(ctx context.Context, novel *entity.Novel, chapterID, instruction string, onChunk func(string)) (string, error) {
	ctx, span := tracer.Start(ctx, "story.Gateway.RefineChapterContent")
	defer span.End()

	idx := novel.ChapterIndex(chapterID)
	if idx < 0 {
		return "", apperrors.ErrChapterNotFound
	}
	ch := novel.Chapters[idx]

	reader, err := g.chapter.Stream(llmctx.WithNovel(ctx, novel.ID), &wfmodel.ChapterContentInput{
		LLMOptions:     llmOptionsFrom(ctx).WithTemperature(g.cfg.ContentTemperature),
		NovelContext:   g.cfg.Grounding.NovelContext(novel),
		PreviousTail:   g.cfg.Grounding.PreviousTail(novel, idx),
		ChapterTitle:   ch.Title,
		ChapterOutline: ch.Outline,
		Progress:       FormatProgress(novel, idx),
		Instruction:    instruction,
	})
	if err != nil {
		return "", tracer.RecordError(span, g.fail(ctx, OpRefineContent, err))
	}
	defer reader.Close()

	var full strings.Builder
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), tracer.RecordError(span, g.fail(ctx, OpRefineContent, err))
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		full.WriteString(msg.Content)
		if onChunk != nil {
			onChunk(msg.Content)
		}
	}
	return full.String(), nil
}

// BrainstormIdea 针对当前章节给出灵感建议
func (g *Gateway) BrainstormIdea(ctx context.Context, novel *entity.Novel, chapter *entity.Chapter, query, excerpt string) (string, error) {
	ctx, span := tracer.Start(ctx, "story.Gateway.BrainstormIdea")
	defer span.End()

	in := &wfmodel.BrainstormInput{
		LLMOptions:   llmOptionsFrom(ctx),
		NovelContext: g.cfg.Grounding.NovelContext(novel),
		Query:        query,
		Excerpt:      excerpt,
	}
	if chapter != nil {
		in.ChapterTitle = chapter.Title
		in.ChapterOutline = chapter.Outline
	}
	text, err := g.brainstorm.Invoke(llmctx.WithNovel(ctx, novel.ID), in)
	if err != nil {
		return "", tracer.RecordError(span, g.fail(ctx, OpBrainstorm, err))
	}
	if text == "" {
		return BrainstormFallback, nil
	}
	return text, nil
}

// cleanOutlines 去除标题与细纲均为空的条目，并截断到 limit
func cleanOutlines(items []wfmodel.OutlineItem, limit int) []Outline {
	out := make([]Outline, 0, min(len(items), max(limit, 0)))
	for _, it := range items {
		if len(out) >= limit {
			break
		}
		title := strings.TrimSpace(it.Title)
		outline := strings.TrimSpace(it.Outline)
		if title == "" && outline == "" {
			continue
		}
		out = append(out, Outline{Title: title, Outline: outline})
	}
	return out
}
