package repository

import (
	"context"

	"wenshu-novel-api/internal/domain/entity"
)

// JobRepository 生成任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务，不存在时返回 ErrJobNotFound
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.GenerationJob) error

	// ListByNovel 获取作品的任务列表，按创建时间倒序
	ListByNovel(ctx context.Context, novelID string) ([]*entity.GenerationJob, error)

	// FindActiveByNovel 获取作品当前未结束的任务，无则返回 nil
	FindActiveByNovel(ctx context.Context, novelID string) (*entity.GenerationJob, error)
}
