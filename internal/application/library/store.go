// Package library 维护内存中的权威书库，并负责变更通知与持久化
package library

import (
	"context"
	"sync"
	"time"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/internal/domain/repository"
	apperrors "wenshu-novel-api/pkg/errors"
	"wenshu-novel-api/pkg/logger"
)

// ChangeKind 变更类型
type ChangeKind string

const (
	ChangeLibraryLoaded  ChangeKind = "library_loaded"
	ChangeNovelCreated   ChangeKind = "novel_created"
	ChangeNovelUpdated   ChangeKind = "novel_updated"
	ChangeNovelDeleted   ChangeKind = "novel_deleted"
	ChangeChapterUpdated ChangeKind = "chapter_updated"
)

// Change 一次已提交的书库变更
// Snapshot 为变更后书库的只读副本，所有订阅者共享，不得修改
type Change struct {
	Seq       uint64
	Kind      ChangeKind
	NovelID   string
	ChapterID string
	At        time.Time
	Snapshot  *entity.Library
}

// Subscriber 变更订阅回调，在变更发起方的 goroutine 中按提交顺序调用
type Subscriber func(Change)

// Store 书库状态的唯一持有者
// 每次变更都在深拷贝上执行再整体替换，读取方拿到的都是副本
type Store struct {
	repo repository.LibraryRepository

	mu  sync.Mutex
	lib *entity.Library
	seq uint64

	// notifyMu 在释放 mu 之前获取，保证通知顺序与提交顺序一致
	notifyMu sync.Mutex
	subsMu   sync.RWMutex
	subs     map[int]Subscriber
	nextSub  int
}

// NewStore 创建空书库
func NewStore(repo repository.LibraryRepository) *Store {
	return &Store{
		repo: repo,
		lib:  entity.NewLibrary(),
		subs: make(map[int]Subscriber),
	}
}

// Load 从存储恢复书库；读取失败或数据损坏时以空书库启动，不返回错误
func (s *Store) Load(ctx context.Context) {
	lib := s.readRepository(ctx)
	s.commit(ChangeLibraryLoaded, "", "", func() error {
		s.lib = lib
		return nil
	})
}

func (s *Store) readRepository(ctx context.Context) *entity.Library {
	if s.repo == nil {
		return entity.NewLibrary()
	}
	lib, err := s.repo.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "library load failed, starting with empty library", "error", err.Error())
		return entity.NewLibrary()
	}
	if lib == nil {
		return entity.NewLibrary()
	}
	lib.Normalize()
	logger.Info(ctx, "library loaded", "novels", len(lib.Novels))
	return lib
}

// Subscribe 注册订阅者，返回取消函数
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Snapshot 当前书库的深拷贝
func (s *Store) Snapshot() *entity.Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lib.Clone()
}

// List 全部作品副本，按书库顺序
func (s *Store) List() []*entity.Novel {
	return s.Snapshot().Novels
}

// Get 获取作品副本
func (s *Store) Get(id string) (*entity.Novel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.lib.Find(id); i >= 0 {
		return s.lib.Novels[i].Clone(), nil
	}
	return nil, apperrors.ErrNovelNotFound
}

// Create 追加作品到书库末尾
func (s *Store) Create(n *entity.Novel) *entity.Novel {
	stored := n.Clone()
	s.commit(ChangeNovelCreated, stored.ID, "", func() error {
		s.lib.Novels = append(s.lib.Novels, stored)
		return nil
	})
	return stored.Clone()
}

// Update 以读改写方式更新作品，fn 返回错误时不提交
func (s *Store) Update(id string, fn func(n *entity.Novel) error) (*entity.Novel, error) {
	return s.update(id, "", ChangeNovelUpdated, fn)
}

// UpdateChapter 更新单个章节，章节不存在时返回 ErrChapterNotFound
func (s *Store) UpdateChapter(novelID, chapterID string, fn func(n *entity.Novel, c *entity.Chapter) error) (*entity.Novel, error) {
	return s.update(novelID, chapterID, ChangeChapterUpdated, func(n *entity.Novel) error {
		c, ok := n.Chapter(chapterID)
		if !ok {
			return apperrors.ErrChapterNotFound
		}
		return fn(n, c)
	})
}

func (s *Store) update(id, chapterID string, kind ChangeKind, fn func(n *entity.Novel) error) (*entity.Novel, error) {
	var updated *entity.Novel
	err := s.commit(kind, id, chapterID, func() error {
		i := s.lib.Find(id)
		if i < 0 {
			return apperrors.ErrNovelNotFound
		}
		draft := s.lib.Novels[i].Clone()
		if err := fn(draft); err != nil {
			return err
		}
		s.lib.Novels[i] = draft
		updated = draft.Clone()
		return nil
	})
	return updated, err
}

// Delete 删除作品
func (s *Store) Delete(id string) error {
	return s.commit(ChangeNovelDeleted, id, "", func() error {
		i := s.lib.Find(id)
		if i < 0 {
			return apperrors.ErrNovelNotFound
		}
		s.lib.Novels = append(s.lib.Novels[:i:i], s.lib.Novels[i+1:]...)
		return nil
	})
}

// commit 在锁内执行 mutate，成功后在锁外按序通知订阅者
func (s *Store) commit(kind ChangeKind, novelID, chapterID string, mutate func() error) error {
	s.mu.Lock()
	if err := mutate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.seq++
	change := Change{
		Seq:       s.seq,
		Kind:      kind,
		NovelID:   novelID,
		ChapterID: chapterID,
		At:        time.Now(),
		Snapshot:  s.lib.Clone(),
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.subsMu.RLock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
	return nil
}
