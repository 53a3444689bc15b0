package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
)

// 正文生成指令
const (
	DefaultContentInstruction = "创作生动的正文，严禁废话。"
	BatchContentInstruction   = "严格遵循细纲创作完整正文。"
)

const (
	modeSingle = "single"
	modeBatch  = "batch"
)

// ContentGenerator 正文生成依赖的网关操作
type ContentGenerator interface {
	RefineChapterContent(ctx context.Context, novel *entity.Novel, chapterID, instruction string, onChunk func(string)) (string, error)
}

// BatchContentResult 批量正文结果
type BatchContentResult struct {
	Total     int      `json:"total"`
	Completed []string `json:"completed"`
	Failed    []string `json:"failed"`
}

// ContentSequencer 单章与批量正文生成
type ContentSequencer struct {
	store *library.Store
	gen   ContentGenerator
	delay time.Duration
}

func NewContentSequencer(store *library.Store, gen ContentGenerator, delay time.Duration) *ContentSequencer {
	return &ContentSequencer{store: store, gen: gen, delay: delay}
}

// CheckGeneratable 章节存在、细纲非空且不在生成中
func (s *ContentSequencer) CheckGeneratable(novelID, chapterID string) error {
	n, err := s.store.Get(novelID)
	if err != nil {
		return err
	}
	c, ok := n.Chapter(chapterID)
	if !ok {
		return apperrors.ErrChapterNotFound
	}
	if !c.HasOutline() {
		return apperrors.ErrEmptyOutline
	}
	if c.IsGenerating() {
		return apperrors.ErrChapterBusy
	}
	return nil
}

// Generate 生成单章正文
// 细纲为空时直接拒绝且不改变状态；片段实时写入章节并转发给 onChunk；失败时章节回退为草稿
func (s *ContentSequencer) Generate(ctx context.Context, novelID, chapterID, instruction string, onChunk func(string)) (*entity.Chapter, error) {
	return s.generate(ctx, novelID, chapterID, instruction, onChunk, modeSingle)
}

func (s *ContentSequencer) generate(ctx context.Context, novelID, chapterID, instruction string, onChunk func(string), mode string) (*entity.Chapter, error) {
	if err := s.CheckGeneratable(novelID, chapterID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultContentInstruction
	}
	ctx = logger.WithContext(ctx, logger.NovelIDKey, novelID)

	// 检查与进入生成中在同一次变更内完成，并发请求只有一个能通过
	novel, err := s.store.UpdateChapter(novelID, chapterID, func(_ *entity.Novel, c *entity.Chapter) error {
		if c.IsGenerating() {
			return apperrors.ErrChapterBusy
		}
		c.BeginGeneration()
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "chapter generation started", "chapter_id", chapterID, "mode", mode)

	full, genErr := s.gen.RefineChapterContent(ctx, novel, chapterID, instruction, func(chunk string) {
		if _, err := s.store.UpdateChapter(novelID, chapterID, func(_ *entity.Novel, c *entity.Chapter) error {
			c.AppendContent(chunk)
			return nil
		}); err != nil {
			logger.Debug(ctx, "chunk dropped, chapter no longer present", "chapter_id", chapterID)
		}
		if onChunk != nil {
			onChunk(chunk)
		}
	})

	var final entity.Chapter
	_, err = s.store.UpdateChapter(novelID, chapterID, func(_ *entity.Novel, c *entity.Chapter) error {
		if genErr != nil {
			c.Revert()
		} else {
			c.Content = full
			c.Complete()
		}
		final = *c
		return nil
	})

	if genErr != nil {
		metrics.ContentGenerationTotal.WithLabelValues(mode, "failed").Inc()
		logger.Error(ctx, "chapter generation failed", genErr, "chapter_id", chapterID, "mode", mode)
		return nil, genErr
	}
	if err != nil {
		// 生成期间章节或作品被删除
		metrics.ContentGenerationTotal.WithLabelValues(mode, "discarded").Inc()
		return nil, err
	}
	metrics.ContentGenerationTotal.WithLabelValues(mode, "completed").Inc()
	metrics.ContentWordCount.Observe(float64(final.WordCount()))
	logger.Info(ctx, "chapter generation completed", "chapter_id", chapterID, "words", final.WordCount())
	return &final, nil
}

// ValidateBatch 启动前校验选择
func (s *ContentSequencer) ValidateBatch(novelID string, chapterIDs []string) error {
	if len(chapterIDs) == 0 {
		return apperrors.ErrEmptySelection
	}
	_, err := s.store.Get(novelID)
	return err
}

// RunBatch 按给定顺序逐章生成正文
// 每章处理时按 ID 读取最新状态；单章失败回退为草稿后继续下一章；每章之后固定间隔
func (s *ContentSequencer) RunBatch(ctx context.Context, novelID string, chapterIDs []string, onProgress ProgressFunc) (BatchContentResult, error) {
	if err := s.ValidateBatch(novelID, chapterIDs); err != nil {
		return BatchContentResult{}, err
	}
	res := BatchContentResult{Total: len(chapterIDs), Completed: []string{}, Failed: []string{}}
	ctx = logger.WithContext(ctx, logger.NovelIDKey, novelID)
	logger.Info(ctx, "batch content started", "chapters", len(chapterIDs))

	for i, id := range chapterIDs {
		title := id
		if n, err := s.store.Get(novelID); err == nil {
			if c, ok := n.Chapter(id); ok {
				title = c.Title
			}
		}
		onProgress.emit(entity.NewProgress(i, len(chapterIDs), fmt.Sprintf("正在创作第 %d/%d 章：%s", i+1, len(chapterIDs), title)))

		if _, err := s.generate(ctx, novelID, id, BatchContentInstruction, nil, modeBatch); err != nil {
			logger.Warn(ctx, "batch content chapter skipped", "chapter_id", id, "error", err.Error())
			res.Failed = append(res.Failed, id)
		} else {
			res.Completed = append(res.Completed, id)
		}
		onProgress.emit(entity.NewProgress(i+1, len(chapterIDs), fmt.Sprintf("已完成 %d/%d 章", i+1, len(chapterIDs))))
		pause(ctx, s.delay)
	}

	logger.Info(ctx, "batch content finished", "completed", len(res.Completed), "failed", len(res.Failed))
	return res, nil
}
