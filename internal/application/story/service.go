package story

import (
	"context"
	"strings"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

// ContinueDirection 未给出续写指令时的默认走向
const ContinueDirection = "顺接上一章，推进主线剧情。"

// Service 对外暴露的生成用例
type Service struct {
	store    *library.Store
	library  *library.Service
	gen      Generator
	outlines *OutlineSequencer
	contents *ContentSequencer
	jobs     *JobRunner
}

// NewService 组装生成用例
func NewService(libs *library.Service, gen Generator, outlines *OutlineSequencer, contents *ContentSequencer, jobs *JobRunner) *Service {
	return &Service{
		store:    libs.Store(),
		library:  libs,
		gen:      gen,
		outlines: outlines,
		contents: contents,
		jobs:     jobs,
	}
}

// StartOutlineBatch 校验后以 outline_batch 任务运行批量大纲
func (s *Service) StartOutlineBatch(ctx context.Context, req BatchOutlineRequest) (*entity.GenerationJob, error) {
	if err := s.outlines.Validate(req); err != nil {
		return nil, err
	}
	return s.jobs.Start(ctx, req.NovelID, entity.JobTypeOutlineBatch, func(ctx context.Context, report ProgressFunc) (any, error) {
		return s.outlines.Run(ctx, req, report)
	})
}

// StartContentBatch 校验后以 content_batch 任务运行批量正文
func (s *Service) StartContentBatch(ctx context.Context, novelID string, chapterIDs []string) (*entity.GenerationJob, error) {
	if err := s.contents.ValidateBatch(novelID, chapterIDs); err != nil {
		return nil, err
	}
	ids := append([]string{}, chapterIDs...)
	return s.jobs.Start(ctx, novelID, entity.JobTypeContentBatch, func(ctx context.Context, report ProgressFunc) (any, error) {
		return s.contents.RunBatch(ctx, novelID, ids, report)
	})
}

// CheckGeneratable 供 SSE 接口在写出响应头之前校验
func (s *Service) CheckGeneratable(novelID, chapterID string) error {
	return s.contents.CheckGeneratable(novelID, chapterID)
}

// GenerateChapter 单章流式生成
func (s *Service) GenerateChapter(ctx context.Context, novelID, chapterID, instruction string, onChunk func(string)) (*entity.Chapter, error) {
	return s.contents.Generate(ctx, novelID, chapterID, instruction, onChunk)
}

// ContinueOutline AI 续写下一章大纲并追加为草稿章节
func (s *Service) ContinueOutline(ctx context.Context, novelID, direction string) (*entity.Chapter, error) {
	n, err := s.store.Get(novelID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(direction) == "" {
		direction = ContinueDirection
	}
	o, err := s.gen.GenerateSingleChapterOutline(ctx, n, direction)
	if err != nil {
		return nil, err
	}
	ch, err := s.library.AppendOutline(ctx, novelID, o.Title, o.Outline)
	if err != nil {
		return nil, err
	}
	logger.Info(logger.WithContext(ctx, logger.NovelIDKey, novelID), "outline continued", "chapter_id", ch.ID)
	return ch, nil
}

// Brainstorm 针对章节与可选选中文段给出灵感建议
func (s *Service) Brainstorm(ctx context.Context, novelID, chapterID, query, excerpt string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", apperrors.ErrInvalidParam.WithDetail("query is required")
	}
	n, err := s.store.Get(novelID)
	if err != nil {
		return "", err
	}
	ch, ok := n.Chapter(chapterID)
	if !ok {
		return "", apperrors.ErrChapterNotFound
	}
	return s.gen.BrainstormIdea(ctx, n, ch, query, excerpt)
}

// Job 查询任务
func (s *Service) Job(ctx context.Context, id string) (*entity.GenerationJob, error) {
	return s.jobs.Get(ctx, id)
}

// Jobs 作品的任务列表
func (s *Service) Jobs(ctx context.Context, novelID string) ([]*entity.GenerationJob, error) {
	return s.jobs.ListByNovel(ctx, novelID)
}

// Wait 等待后台任务结束
func (s *Service) Wait(ctx context.Context) error {
	return s.jobs.Wait(ctx)
}
