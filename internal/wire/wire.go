//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/application/story"
	"wenshu-novel-api/internal/config"
	"wenshu-novel-api/internal/domain/repository"
	"wenshu-novel-api/internal/infrastructure/llm"
	"wenshu-novel-api/internal/infrastructure/persistence/memory"
	"wenshu-novel-api/internal/interfaces/http/handler"
	"wenshu-novel-api/internal/interfaces/http/router"
	workflowport "wenshu-novel-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		DataSet,
		LibrarySet,
		StorySet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeLibrary 仅初始化书库（运维 CLI 只读使用，不回写）
func InitializeLibrary(ctx context.Context, cfg *config.Config) (*library.Service, func(), error) {
	wire.Build(
		DataSet,
		ProvideLibraryStore,
		library.NewService,
	)
	return nil, nil, nil
}

// DataSet 存储与外部连接提供者集合
var DataSet = wire.NewSet(
	ProvideRedisClient,
	ProvidePostgresClient,
	ProvideLibraryRepository,
)

// LibrarySet 书库提供者集合
var LibrarySet = wire.NewSet(
	ProvideLibraryStore,
	ProvidePersister,
	ProvideChangePublisher,
	library.NewService,
)

// StorySet 生成编排提供者集合
var StorySet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideGateway,
	wire.Bind(new(story.Generator), new(*story.Gateway)),
	ProvideOutlineSequencer,
	ProvideContentSequencer,
	memory.NewJobRepository,
	wire.Bind(new(repository.JobRepository), new(*memory.JobRepository)),
	story.NewJobRunner,
	ProvideStoryService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideEventHub,
	ProvideHealthHandler,
	ProvideRateLimiter,
	handler.NewNovelHandler,
	handler.NewChapterHandler,
	handler.NewStreamHandler,
	handler.NewGenerationHandler,
	handler.NewJobHandler,
	handler.NewExportHandler,
	handler.NewEventHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
