package router

import (
	"github.com/ashwinyue/kb-chat/internal/handler"
	"github.com/ashwinyue/kb-chat/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 知识库管理
	kb := r.Group("/kb")
	{
		kb.POST("/create", h.Knowledge.CreateKnowledgeBase)
		kb.GET("/list", h.Knowledge.ListKnowledgeBases)
		kb.GET("/:kb_id/files", h.Knowledge.ListFiles)
	}

	// 文件上传
	r.POST("/upload", h.Knowledge.Upload)

	// 聊天
	r.POST("/chat", h.Chat.Chat)
	r.GET("/chat/history", h.Chat.GetHistory)

	// 会话
	sessions := r.Group("/sessions")
	{
		sessions.GET("", h.Chat.ListSessions)
		sessions.GET("/:session_id/messages", h.Chat.GetSessionMessages)
	}

	return r
}
