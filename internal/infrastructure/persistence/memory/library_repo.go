// Package memory 提供进程内的仓储实现，用于开发与测试
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"wenshu-novel-api/internal/domain/entity"
)

// LibraryRepository 以序列化快照保存书库，读写互不共享内存
type LibraryRepository struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

func NewLibraryRepository() *LibraryRepository {
	return &LibraryRepository{}
}

// Load 尚未保存过时返回 nil
func (r *LibraryRepository) Load(_ context.Context) (*entity.Library, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return nil, nil
	}
	var lib entity.Library
	if err := json.Unmarshal(r.data, &lib); err != nil {
		return nil, err
	}
	return &lib, nil
}

func (r *LibraryRepository) Save(_ context.Context, lib *entity.Library) error {
	b, err := json.Marshal(lib)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.data = b
	r.saves++
	r.mu.Unlock()
	return nil
}

// Saves 已执行的保存次数
func (r *LibraryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
