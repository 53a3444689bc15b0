// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由，limit 仅作用于调用模型的接口
func RegisterV1Routes(v1 *gin.RouterGroup, h RouterHandlers, limit gin.HandlerFunc) {
	// 书库
	novels := v1.Group("/novels")
	{
		novels.GET("", h.Novel.ListNovels)
		novels.POST("", h.Novel.CreateNovel)
		novels.POST("/setup", limit, h.Novel.SetupNovel)
		novels.GET("/:nid", h.Novel.GetNovel)
		novels.PUT("/:nid", h.Novel.UpdateNovel)
		novels.DELETE("/:nid", h.Novel.DeleteNovel)
		novels.PUT("/:nid/characters", h.Novel.ReplaceCharacters)

		// 作品变更推送 (WebSocket)
		novels.GET("/:nid/events", h.Event.Subscribe)

		// 作品下的任务
		novels.GET("/:nid/jobs", h.Job.ListNovelJobs)

		// 导出
		novels.POST("/:nid/export", h.Export.Export)
	}

	// 章节
	chapters := novels.Group("/:nid/chapters")
	{
		chapters.GET("", h.Chapter.ListChapters)
		chapters.POST("", h.Chapter.AddChapter)
		chapters.GET("/groups", h.Chapter.ChapterGroups)
		chapters.PUT("/reorder", h.Chapter.ReorderChapters)
		chapters.GET("/:cid", h.Chapter.GetChapter)
		chapters.PUT("/:cid", h.Chapter.UpdateChapter)
		chapters.DELETE("/:cid", h.Chapter.DeleteChapter)
		chapters.POST("/:cid/generate", limit, h.Stream.GenerateChapter) // SSE
		chapters.POST("/:cid/brainstorm", limit, h.Generation.Brainstorm)
	}

	// 生成
	gen := novels.Group("/:nid", limit)
	{
		gen.POST("/outlines/batch", h.Generation.BatchOutlines)
		gen.POST("/outlines/next", h.Generation.NextOutline)
		gen.POST("/contents/batch", h.Generation.BatchContents)
	}

	// 任务
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", h.Job.GetJob)
	}
}
