package wire

import (
	"context"
	"fmt"
	"time"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/domain/repository"
	"wenshu-novel-api/internal/infrastructure/llm"
	"wenshu-novel-api/internal/infrastructure/messaging"
	"wenshu-novel-api/internal/infrastructure/persistence/file"
	"wenshu-novel-api/internal/infrastructure/persistence/memory"
	"wenshu-novel-api/internal/infrastructure/persistence/postgres"
	"wenshu-novel-api/internal/infrastructure/persistence/redis"
	"wenshu-novel-api/internal/infrastructure/persistence/sqlite"
	"wenshu-novel-api/internal/interfaces/http/handler"
	"wenshu-novel-api/internal/interfaces/http/middleware"
	"wenshu-novel-api/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// ProvideRedisClient 提供 Redis 客户端，未启用时为 nil
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvidePostgresClient 提供 PostgreSQL 客户端，仅 postgres 存储驱动需要
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideLibraryRepository 按 storage.driver 选择书库快照存储
func ProvideLibraryRepository(cfg *config.Config, redisClient *redis.Client, pgClient *postgres.Client) (repository.LibraryRepository, func(), error) {
	ns := cfg.Storage.Namespace
	noop := func() {}

	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		repo, err := file.NewLibraryRepository(cfg.Storage.File.Dir, ns)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil
	case config.StorageDriverSQLite:
		repo, err := sqlite.Open(cfg.Storage.SQLite.Path, ns)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.StorageDriverRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("storage driver redis requires cache.redis.enabled")
		}
		return redis.NewLibraryRepository(redisClient, ns), noop, nil
	case config.StorageDriverPostgres:
		repo, err := postgres.NewLibraryRepository(pgClient, ns)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil
	case config.StorageDriverMemory:
		return memory.NewLibraryRepository(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ProvideLibraryStore 创建书库并加载持久化快照；读取失败时以空书库启动
func ProvideLibraryStore(ctx context.Context, repo repository.LibraryRepository) *library.Store {
	store := library.NewStore(repo)
	store.Load(ctx)
	return store
}

// ProvidePersister 订阅书库变更并异步回写，关闭时等待队列写完
func ProvidePersister(cfg *config.Config, repo repository.LibraryRepository, store *library.Store) (*library.Persister, func()) {
	p := library.NewPersister(repo, cfg.Storage.Driver)
	detach := p.Attach(store)
	cleanup := func() {
		detach()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := p.Close(ctx); err != nil {
			logger.Error(ctx, "persister close failed", err)
		}
	}
	return p, cleanup
}

// ProvideChangePublisher 启用消息时把书库变更发布到 Redis Stream
func ProvideChangePublisher(cfg *config.Config, redisClient *redis.Client, store *library.Store) (*messaging.ChangePublisher, func()) {
	if !cfg.Messaging.Enabled || redisClient == nil {
		return nil, func() {}
	}
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	pub := messaging.NewChangePublisher(producer, 0)
	unsubscribe := store.Subscribe(func(c library.Change) {
		if c.Kind == library.ChangeLibraryLoaded {
			return
		}
		pub.Enqueue(messaging.LibraryChange{
			Seq:       c.Seq,
			Kind:      string(c.Kind),
			NovelID:   c.NovelID,
			ChapterID: c.ChapterID,
			At:        c.At.UnixMilli(),
		})
	})
	cleanup := func() {
		unsubscribe()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := pub.Close(ctx); err != nil {
			logger.Error(ctx, "change publisher close failed", err)
		}
	}
	return pub, cleanup
}

// ProvideGateway 创建生成网关
func ProvideGateway(cfg *config.Config, factory *llm.EinoFactory) *story.Gateway {
	g := cfg.Generation
	return story.NewGateway(factory, story.GatewayConfig{
		Grounding: story.Grounding{
			RecencyWindow: g.RecencyWindow,
			OutlineWindow: g.OutlineWindow,
			PrevTailRunes: g.PrevTailRunes,
		},
		InitialOutlineCap:  g.InitialOutlineCap,
		OutlineTemperature: g.OutlineTemperature,
		ContentTemperature: g.ContentTemperature,
	})
}

// ProvideOutlineSequencer 创建批量大纲序列
func ProvideOutlineSequencer(cfg *config.Config, store *library.Store, gen story.Generator) *story.OutlineSequencer {
	return story.NewOutlineSequencer(store, gen, cfg.Generation.ChunkSize, cfg.Generation.OutlineDelay)
}

// ProvideContentSequencer 创建批量正文序列
func ProvideContentSequencer(cfg *config.Config, store *library.Store, gen story.Generator) *story.ContentSequencer {
	return story.NewContentSequencer(store, gen, cfg.Generation.ContentDelay)
}

// ProvideStoryService 创建生成编排服务，关闭时等待后台任务结束
func ProvideStoryService(libs *library.Service, gen story.Generator, outlines *story.OutlineSequencer, contents *story.ContentSequencer, jobs *story.JobRunner) (*story.Service, func()) {
	svc := story.NewService(libs, gen, outlines, contents, jobs)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Wait(ctx); err != nil {
			logger.Warn(ctx, "background jobs still running at shutdown", "error", err.Error())
		}
	}
	return svc, cleanup
}

// ProvideEventHub 创建 WebSocket 变更分发
func ProvideEventHub(store *library.Store) (*handler.EventHub, func()) {
	hub := handler.NewEventHub(store)
	return hub, hub.Close
}

// ProvideHealthHandler 按已启用的依赖组装就绪检查
func ProvideHealthHandler(cfg *config.Config, repo repository.LibraryRepository, redisClient *redis.Client, pgClient *postgres.Client, factory *llm.EinoFactory) *handler.HealthHandler {
	checks := map[string]handler.HealthCheck{
		"llm": func(context.Context) error {
			if !factory.Has("") {
				return fmt.Errorf("default llm provider %q not configured", cfg.LLM.DefaultProvider)
			}
			return nil
		},
	}
	if p, ok := repo.(interface{ Ping(context.Context) error }); ok {
		checks["storage"] = p.Ping
	}
	if redisClient != nil {
		checks["redis"] = redisClient.HealthCheck
	}
	if pgClient != nil {
		checks["postgres"] = pgClient.HealthCheck
	}
	return handler.NewHealthHandler(cfg.App.Version, factory.Providers(), checks)
}

// ProvideRateLimiter Redis 未启用时返回 nil，生成类接口不限流
func ProvideRateLimiter(redisClient *redis.Client) middleware.RateLimiter {
	if redisClient == nil {
		return nil
	}
	return redis.NewRateLimiter(redisClient)
}
