package story

import (
	"context"
	"fmt"
	"time"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
)

// 批量大纲状态文案
const (
	outlineStatusStart    = "正在构思剧情脉络..."
	outlineStatusChecking = "逻辑校验中..."
)

// OutlineGenerator 批量大纲序列依赖的网关操作
type OutlineGenerator interface {
	GenerateBatchOutlines(ctx context.Context, novel *entity.Novel, batchSize int, direction, insertAfterID string, targetCoverage float64) ([]Outline, error)
}

// BatchOutlineRequest 批量大纲参数
type BatchOutlineRequest struct {
	NovelID   string
	Total     int
	Direction string
	// InsertAfterID 为空时追加到末尾
	InsertAfterID string
	// TargetCoverage <= 0 时视为 100
	TargetCoverage float64
}

// BatchOutlineResult 批量大纲结果；Err 记录中途失败，已提交的章节保留
type BatchOutlineResult struct {
	Requested      int      `json:"requested"`
	Generated      int      `json:"generated"`
	ChapterIDs     []string `json:"chapterIds"`
	LastInsertedID string   `json:"lastInsertedId,omitempty"`
	Coverage       float64  `json:"coverage"`
	StoppedEarly   bool     `json:"stoppedEarly"`
	Err            error    `json:"-"`
}

// OutlineSequencer 将大批量大纲请求拆成固定大小的批次依次生成
type OutlineSequencer struct {
	store     *library.Store
	gen       OutlineGenerator
	chunkSize int
	delay     time.Duration
}

// NewOutlineSequencer chunkSize <= 0 时取 15
func NewOutlineSequencer(store *library.Store, gen OutlineGenerator, chunkSize int, delay time.Duration) *OutlineSequencer {
	if chunkSize <= 0 {
		chunkSize = 15
	}
	return &OutlineSequencer{store: store, gen: gen, chunkSize: chunkSize, delay: delay}
}

// Validate 启动前校验参数与作品存在
func (s *OutlineSequencer) Validate(req BatchOutlineRequest) error {
	if req.Total <= 0 {
		return apperrors.ErrInvalidParam.WithDetail("total must be positive")
	}
	_, err := s.store.Get(req.NovelID)
	return err
}

// Run 执行批量大纲序列
// 每批都重新读取作品最新状态作为档案；插入游标随每批推进，游标章节被删除时改为追加
func (s *OutlineSequencer) Run(ctx context.Context, req BatchOutlineRequest, onProgress ProgressFunc) (BatchOutlineResult, error) {
	if err := s.Validate(req); err != nil {
		return BatchOutlineResult{}, err
	}
	target := req.TargetCoverage
	if target <= 0 {
		target = 100
	}
	target = entity.ClampCoverage(target)

	novel, err := s.store.Get(req.NovelID)
	if err != nil {
		return BatchOutlineResult{}, err
	}
	startCoverage := novel.Coverage()
	cursor := req.InsertAfterID

	res := BatchOutlineResult{Requested: req.Total, Coverage: startCoverage, ChapterIDs: []string{}}
	ctx = logger.WithContext(ctx, logger.NovelIDKey, req.NovelID)
	logger.Info(ctx, "batch outline started", "total", req.Total, "target_coverage", target, "insert_after", cursor)
	onProgress.emit(entity.NewProgress(0, req.Total, outlineStatusStart))

	for res.Generated < req.Total {
		batchSize := min(s.chunkSize, req.Total-res.Generated)
		latest, err := s.store.Get(req.NovelID)
		if err != nil {
			logger.Warn(ctx, "novel disappeared during batch outline", "generated", res.Generated)
			break
		}

		onProgress.emit(entity.NewProgress(res.Generated, req.Total,
			fmt.Sprintf("正在规划第 %d - %d 章情节...", res.Generated+1, res.Generated+batchSize)))

		outlines, err := s.gen.GenerateBatchOutlines(ctx, latest, batchSize, req.Direction, cursor, target)
		if err != nil {
			metrics.OutlineBatchTotal.WithLabelValues("error").Inc()
			logger.Error(ctx, "batch outline aborted", err, "generated", res.Generated)
			res.Err = err
			break
		}
		if len(outlines) == 0 {
			metrics.OutlineBatchTotal.WithLabelValues("empty").Inc()
			logger.Info(ctx, "batch outline stopped early on empty batch", "generated", res.Generated)
			res.StoppedEarly = true
			break
		}

		chapters := make([]entity.Chapter, 0, len(outlines))
		for _, o := range outlines {
			chapters = append(chapters, entity.NewChapter(o.Title, o.Outline))
		}
		generated := res.Generated + len(chapters)
		coverage := interpolateCoverage(startCoverage, target, generated, req.Total)

		_, err = s.store.Update(req.NovelID, func(n *entity.Novel) error {
			n.InsertChaptersAfter(cursor, chapters...)
			if coverage > n.Coverage() {
				n.SetCoverage(coverage)
			}
			return nil
		})
		if err != nil {
			logger.Error(ctx, "batch outline commit failed", err, "generated", res.Generated)
			res.Err = err
			break
		}

		metrics.OutlineBatchTotal.WithLabelValues("ok").Inc()
		metrics.OutlineChaptersCreated.Add(float64(len(chapters)))
		cursor = chapters[len(chapters)-1].ID
		res.LastInsertedID = cursor
		res.Generated = generated
		res.Coverage = max(res.Coverage, coverage)
		for _, c := range chapters {
			res.ChapterIDs = append(res.ChapterIDs, c.ID)
		}

		onProgress.emit(entity.NewProgress(res.Generated, req.Total, outlineStatusChecking))
		logger.Debug(ctx, "batch outline committed", "batch", len(chapters), "generated", res.Generated, "coverage", coverage)

		if res.Generated < req.Total {
			pause(ctx, s.delay)
		}
	}

	if res.Generated < req.Total && res.Err == nil {
		res.StoppedEarly = true
	}
	logger.Info(ctx, "batch outline finished", "generated", res.Generated, "requested", req.Total, "coverage", res.Coverage)
	return res, nil
}

// interpolateCoverage 在起始进度与目标之间按已生成比例线性插值，不超过目标
func interpolateCoverage(start, target float64, generated, total int) float64 {
	if generated >= total {
		return target
	}
	v := start + float64(generated)/float64(total)*(target-start)
	return min(v, target)
}

// Failure 中途失败的原因，供任务标记失败
func (r BatchOutlineResult) Failure() error {
	return r.Err
}
