package story

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/internal/domain/repository"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
)

// JobFunc 后台任务主体，返回值序列化后写入任务结果
type JobFunc func(ctx context.Context, report ProgressFunc) (any, error)

// partialFailure 结果已部分提交但需要将任务标记为失败
type partialFailure interface {
	Failure() error
}

// JobRunner 在后台执行生成任务并记录进度
// 同一作品同时只允许一个未结束的任务
type JobRunner struct {
	repo repository.JobRepository
	mu   sync.Mutex
	wg   sync.WaitGroup
}

func NewJobRunner(repo repository.JobRepository) *JobRunner {
	return &JobRunner{repo: repo}
}

// Start 创建并启动任务，立即返回 pending/running 状态的任务副本
// 任务在与请求解绑的 context 上运行，不可取消
func (r *JobRunner) Start(ctx context.Context, novelID string, jobType entity.JobType, fn JobFunc) (*entity.GenerationJob, error) {
	r.mu.Lock()
	active, err := r.repo.FindActiveByNovel(ctx, novelID)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if active != nil {
		r.mu.Unlock()
		return nil, apperrors.ErrJobRunning.WithDetail(active.ID)
	}
	job := entity.NewGenerationJob(novelID, jobType)
	if err := r.repo.Create(ctx, job); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	bg = logger.WithContext(bg, logger.JobIDKey, job.ID)
	bg = logger.WithContext(bg, logger.NovelIDKey, novelID)

	r.wg.Add(1)
	go r.run(bg, job.Clone(), fn)
	return job.Clone(), nil
}

func (r *JobRunner) run(ctx context.Context, job *entity.GenerationJob, fn JobFunc) {
	defer r.wg.Done()
	gauge := metrics.JobsRunning.WithLabelValues(string(job.Type))
	gauge.Inc()
	defer gauge.Dec()

	var mu sync.Mutex
	save := func() {
		if err := r.repo.Update(ctx, job.Clone()); err != nil {
			logger.Warn(ctx, "job update failed", "error", err.Error())
		}
	}

	mu.Lock()
	job.Start()
	save()
	mu.Unlock()
	logger.Info(ctx, "job started", "type", job.Type)

	result, err := r.invoke(ctx, fn, func(p entity.Progress) {
		mu.Lock()
		defer mu.Unlock()
		job.UpdateProgress(p)
		save()
	})

	mu.Lock()
	defer mu.Unlock()
	var raw json.RawMessage
	if result != nil {
		raw, _ = json.Marshal(result)
	}
	if err == nil {
		if pf, ok := result.(partialFailure); ok {
			err = pf.Failure()
		}
	}
	if err != nil {
		job.Fail(err.Error(), raw)
		logger.Error(ctx, "job failed", err, "type", job.Type, "duration_ms", job.DurationMs)
	} else {
		job.Complete(raw)
		logger.Info(ctx, "job completed", "type", job.Type, "duration_ms", job.DurationMs)
	}
	save()
}

// invoke 执行任务主体，panic 转为任务失败
func (r *JobRunner) invoke(ctx context.Context, fn JobFunc, report ProgressFunc) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = apperrors.New(apperrors.CodeInternalError, "job panicked").WithDetail(fmt.Sprint(rec))
		}
	}()
	return fn(ctx, report)
}

// Get 查询任务
func (r *JobRunner) Get(ctx context.Context, id string) (*entity.GenerationJob, error) {
	return r.repo.GetByID(ctx, id)
}

// ListByNovel 作品的任务，按创建时间倒序
func (r *JobRunner) ListByNovel(ctx context.Context, novelID string) ([]*entity.GenerationJob, error) {
	return r.repo.ListByNovel(ctx, novelID)
}

// Wait 等待所有已启动任务结束，ctx 结束时提前返回
func (r *JobRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
