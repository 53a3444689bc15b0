// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"wenshu-novel-api/internal/domain/entity"
)

// LibraryRepository 书库快照存储
// Load 在无数据时返回 (nil, nil)；Save 覆盖写入整个书库
type LibraryRepository interface {
	Load(ctx context.Context) (*entity.Library, error)
	Save(ctx context.Context, lib *entity.Library) error
}
