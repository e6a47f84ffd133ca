package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/expert-QA-system/api/handler"
	"github.com/fyerfyer/expert-QA-system/api/middleware"
	"github.com/fyerfyer/expert-QA-system/api/model"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	uploadHandler *handler.UploadHandler,
	askHandler *handler.AskHandler,
	chatHandler *handler.ChatHandler,
	sessionHandler *handler.SessionHandler,
) *gin.Engine {
	// 注册自定义请求参数校验规则
	model.RegisterValidators()

	// 创建Gin路由引擎
	router := gin.New()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 在调试模式下记录请求体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	// 创建API分组
	api := router.Group("/api")
	{
		// 上传文档并建立会话 - POST /api/upload
		api.POST("/upload", uploadHandler.UploadDocuments)

		// 针对会话提问 - POST /api/ask
		api.POST("/ask", askHandler.AskQuestion)

		// 多轮对话（尚未集成） - POST /api/chat
		api.POST("/chat", chatHandler.Chat)

		// 会话列表 - GET /api/sessions
		api.GET("/sessions", sessionHandler.ListSessions)

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
