package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/pkg/tracer"
)

// LibraryRepository 书库快照整体存为一个不过期的字符串键
type LibraryRepository struct {
	client *Client
	key    string
}

// NewLibraryRepository 命名空间即键名
func NewLibraryRepository(client *Client, namespace string) *LibraryRepository {
	if namespace == "" {
		namespace = entity.LibraryNamespace
	}
	return &LibraryRepository{client: client, key: namespace}
}

// Load 键不存在时返回 nil, nil
func (r *LibraryRepository) Load(ctx context.Context) (*entity.Library, error) {
	ctx, span := tracer.Start(ctx, "redis.LibraryRepository.Load",
		trace.WithAttributes(attribute.String("library.key", r.key)))
	defer span.End()

	raw, err := r.client.rdb.Get(ctx, r.key).Bytes()
	switch {
	case IsNil(err):
		return nil, nil
	case err != nil:
		return nil, tracer.RecordError(span, fmt.Errorf("get %s: %w", r.key, err))
	}
	lib := new(entity.Library)
	if err := json.Unmarshal(raw, lib); err != nil {
		return nil, tracer.RecordError(span, fmt.Errorf("decode library: %w", err))
	}
	return lib, nil
}

func (r *LibraryRepository) Save(ctx context.Context, lib *entity.Library) error {
	ctx, span := tracer.Start(ctx, "redis.LibraryRepository.Save", trace.WithAttributes(
		attribute.String("library.key", r.key),
		attribute.Int("library.novels", len(lib.Novels)),
	))
	defer span.End()

	data, err := json.Marshal(lib)
	if err != nil {
		return tracer.RecordError(span, fmt.Errorf("encode library: %w", err))
	}
	if err := r.client.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return tracer.RecordError(span, fmt.Errorf("set %s: %w", r.key, err))
	}
	return nil
}
