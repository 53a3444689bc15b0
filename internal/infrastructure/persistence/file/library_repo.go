// Package file 提供基于本地 JSON 文件的书库存储
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/pkg/tracer"
)

// LibraryRepository 将整个书库保存为 <dir>/<namespace>.json
// 写入持有排他文件锁并通过临时文件改名替换，读取持有共享锁
type LibraryRepository struct {
	path string
	lock *flock.Flock
}

// NewLibraryRepository 创建文件存储，目录不存在时自动创建
func NewLibraryRepository(dir, namespace string) (*LibraryRepository, error) {
	if namespace == "" {
		namespace = entity.LibraryNamespace
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	path := filepath.Join(dir, namespace+".json")
	return &LibraryRepository{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path 书库文件路径
func (r *LibraryRepository) Path() string {
	return r.path
}

// Ping 检查书库目录可访问
func (r *LibraryRepository) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(r.path))
	return err
}

func (r *LibraryRepository) Load(ctx context.Context) (*entity.Library, error) {
	_, span := tracer.Start(ctx, "file.LibraryRepository.Load")
	defer span.End()

	if err := r.lock.RLock(); err != nil {
		return nil, tracer.RecordError(span, fmt.Errorf("acquire shared lock: %w", err))
	}
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, tracer.RecordError(span, fmt.Errorf("read library file: %w", err))
	}
	var lib entity.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, tracer.RecordError(span, fmt.Errorf("decode library file: %w", err))
	}
	return &lib, nil
}

func (r *LibraryRepository) Save(ctx context.Context, lib *entity.Library) error {
	_, span := tracer.Start(ctx, "file.LibraryRepository.Save")
	defer span.End()

	data, err := json.Marshal(lib)
	if err != nil {
		return tracer.RecordError(span, fmt.Errorf("encode library: %w", err))
	}

	if err := r.lock.Lock(); err != nil {
		return tracer.RecordError(span, fmt.Errorf("acquire exclusive lock: %w", err))
	}
	defer r.lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return tracer.RecordError(span, fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return tracer.RecordError(span, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return tracer.RecordError(span, fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return tracer.RecordError(span, fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return tracer.RecordError(span, fmt.Errorf("replace library file: %w", err))
	}
	return nil
}
