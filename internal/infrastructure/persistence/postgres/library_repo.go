package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/pkg/tracer"
)

// LibrarySnapshot 书库快照行，novel_ids 便于运维直接查询书库中有哪些作品
type LibrarySnapshot struct {
	Namespace string          `gorm:"primaryKey;type:text"`
	Payload   json.RawMessage `gorm:"type:jsonb;not null"`
	NovelIDs  pq.StringArray  `gorm:"type:text[]"`
	UpdatedAt time.Time
}

// TableName 表名
func (LibrarySnapshot) TableName() string {
	return "library_snapshots"
}

// NewSnapshot 由书库构造快照行
func NewSnapshot(namespace string, lib *entity.Library) (*LibrarySnapshot, error) {
	payload, err := json.Marshal(lib)
	if err != nil {
		return nil, fmt.Errorf("encode library: %w", err)
	}
	return &LibrarySnapshot{
		Namespace: namespace,
		Payload:   payload,
		NovelIDs:  pq.StringArray(lib.NovelIDs()),
		UpdatedAt: time.Now(),
	}, nil
}

// LibraryRepository 基于 library_snapshots 表的书库存储
type LibraryRepository struct {
	client    *Client
	namespace string
}

// NewLibraryRepository 创建存储并自动迁移表结构
func NewLibraryRepository(client *Client, namespace string) (*LibraryRepository, error) {
	if namespace == "" {
		namespace = entity.LibraryNamespace
	}
	if err := client.db.AutoMigrate(&LibrarySnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate library_snapshots: %w", err)
	}
	return &LibraryRepository{client: client, namespace: namespace}, nil
}

func (r *LibraryRepository) Load(ctx context.Context) (*entity.Library, error) {
	ctx, span := tracer.Start(ctx, "postgres.LibraryRepository.Load")
	defer span.End()

	var row LibrarySnapshot
	err := r.client.db.WithContext(ctx).First(&row, "namespace = ?", r.namespace).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load library: %w", err)
	}
	var lib entity.Library
	if err := json.Unmarshal(row.Payload, &lib); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode library: %w", err)
	}
	return &lib, nil
}

func (r *LibraryRepository) Save(ctx context.Context, lib *entity.Library) error {
	ctx, span := tracer.Start(ctx, "postgres.LibraryRepository.Save")
	defer span.End()

	row, err := NewSnapshot(r.namespace, lib)
	if err != nil {
		span.RecordError(err)
		return err
	}
	err = r.client.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "novel_ids", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}
