package memory

import (
	"context"
	"sort"
	"sync"

	"wenshu-novel-api/internal/domain/entity"
	apperrors "wenshu-novel-api/pkg/errors"
)

// JobRepository 进程内任务仓储，任务不跨进程保留
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*entity.GenerationJob
}

func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]*entity.GenerationJob)}
}

func (r *JobRepository) Create(_ context.Context, job *entity.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *JobRepository) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (r *JobRepository) Update(_ context.Context, job *entity.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return apperrors.ErrJobNotFound
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *JobRepository) ListByNovel(_ context.Context, novelID string) ([]*entity.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.GenerationJob, 0)
	for _, job := range r.jobs {
		if job.NovelID == novelID {
			out = append(out, job.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *JobRepository) FindActiveByNovel(_ context.Context, novelID string) (*entity.GenerationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, job := range r.jobs {
		if job.NovelID == novelID && job.IsActive() {
			return job.Clone(), nil
		}
	}
	return nil, nil
}
