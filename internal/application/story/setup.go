package story

import (
	"context"
	"fmt"
	"strings"

	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

// SetupDirection 开书后续批量大纲的剧情走向
const SetupDirection = "顺接前文初始设定，开启精彩的故事旅程。"

// SetupRequest 开书向导参数
type SetupRequest struct {
	Title         string       `json:"title"`
	Genre         entity.Genre `json:"genre"`
	Premise       string       `json:"premise"`
	TotalChapters int          `json:"totalChapters"`
	// Coverage 本次规划覆盖全书的百分比，<= 0 时视为 100
	Coverage float64 `json:"coverage"`
}

// Validate 校验并补全默认值
func (r *SetupRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Premise = strings.TrimSpace(r.Premise)
	if r.Title == "" {
		return apperrors.ErrInvalidParam.WithDetail("title is required")
	}
	if !r.Genre.Valid() {
		return apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("unknown genre %q", r.Genre))
	}
	if r.TotalChapters <= 0 {
		return apperrors.ErrInvalidParam.WithDetail("totalChapters must be positive")
	}
	if r.Coverage <= 0 {
		r.Coverage = 100
	}
	r.Coverage = entity.ClampCoverage(r.Coverage)
	return nil
}

// SetupResult 开书结果；剩余章节交给后台任务时 Job 非空
type SetupResult struct {
	Novel *entity.Novel         `json:"novel"`
	Job   *entity.GenerationJob `json:"job,omitempty"`
}

// Setup 开书向导：生成人物与首批大纲、建书，剩余章节作为 novel_setup 任务在后台续写
func (s *Service) Setup(ctx context.Context, req SetupRequest) (*SetupResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	outline, err := s.gen.GenerateNovelOutline(ctx, NovelOutlineRequest{
		Title:         req.Title,
		Genre:         req.Genre,
		Premise:       req.Premise,
		TotalChapters: req.TotalChapters,
		Coverage:      req.Coverage,
	})
	if err != nil {
		return nil, err
	}
	if len(outline.Chapters) == 0 {
		return nil, &GenerationFailure{Op: OpNovelOutline, Err: fmt.Errorf("no chapters returned")}
	}

	n := entity.NewNovel(req.Title, req.Premise, req.Genre)
	n.Characters = append([]entity.Character{}, outline.Characters...)
	for _, o := range outline.Chapters {
		n.Chapters = append(n.Chapters, entity.NewChapter(o.Title, o.Outline))
	}
	n.SetCoverage(float64(len(n.Chapters)) / float64(req.TotalChapters) * req.Coverage)

	created := s.store.Create(n)
	ctx = logger.WithContext(ctx, logger.NovelIDKey, created.ID)
	logger.Info(ctx, "novel setup created", "chapters", len(created.Chapters), "requested", req.TotalChapters)

	res := &SetupResult{Novel: created}
	remaining := req.TotalChapters - len(created.Chapters)
	if remaining <= 0 {
		return res, nil
	}

	batch := BatchOutlineRequest{
		NovelID:        created.ID,
		Total:          remaining,
		Direction:      SetupDirection,
		InsertAfterID:  created.LastChapterID(),
		TargetCoverage: req.Coverage,
	}
	job, err := s.jobs.Start(ctx, created.ID, entity.JobTypeNovelSetup, func(ctx context.Context, report ProgressFunc) (any, error) {
		return s.outlines.Run(ctx, batch, report)
	})
	if err != nil {
		return nil, err
	}
	res.Job = job
	return res, nil
}
