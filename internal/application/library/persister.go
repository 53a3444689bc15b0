package library

import (
	"context"
	"sync"
	"time"

	"wenshu-novel-api/internal/domain/entity"
	"wenshu-novel-api/internal/domain/repository"
	"wenshu-novel-api/pkg/logger"
	"wenshu-novel-api/pkg/metrics"
)

const saveTimeout = 15 * time.Second

// Persister 订阅书库变更并在单个后台 goroutine 中按序写入存储
// 队列不设上限，变更方从不等待写入；失败只记录日志与指标
type Persister struct {
	repo   repository.LibraryRepository
	driver string

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*entity.Library
	closed  bool
	done    chan struct{}
}

// NewPersister 创建并启动持久化 worker
func NewPersister(repo repository.LibraryRepository, driver string) *Persister {
	p := &Persister{
		repo:   repo,
		driver: driver,
		done:   make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Attach 订阅 store 的变更，返回取消函数
func (p *Persister) Attach(store *Store) func() {
	return store.Subscribe(p.OnChange)
}

// OnChange 作为 Subscriber 使用；加载事件不回写
func (p *Persister) OnChange(c Change) {
	if c.Kind == ChangeLibraryLoaded || c.Snapshot == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = append(p.pending, c.Snapshot)
	p.cond.Signal()
}

// next 阻塞到有待写快照；关闭且队列写空后返回 false
func (p *Persister) next() (*entity.Library, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.pending) == 0 {
		return nil, false
	}
	lib := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return lib, true
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		lib, ok := p.next()
		if !ok {
			return
		}
		p.save(lib)
	}
}

func (p *Persister) save(lib *entity.Library) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	start := time.Now()
	err := p.repo.Save(ctx, lib)
	metrics.LibrarySaveDuration.WithLabelValues(p.driver).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LibrarySaveTotal.WithLabelValues(p.driver, "error").Inc()
		logger.Error(ctx, "library save failed", err, "driver", p.driver, "novels", len(lib.Novels))
		return
	}
	metrics.LibrarySaveTotal.WithLabelValues(p.driver, "ok").Inc()
}

// Close 停止接收新快照并等待队列写完
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
