package routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/config"
	"github.com/lzx0713/FreeChat/internal/handlers"
	"github.com/lzx0713/FreeChat/internal/middlewares"
	"github.com/lzx0713/FreeChat/internal/ws"
	pkgmiddlewares "github.com/lzx0713/FreeChat/pkg/middlewares"
	"github.com/lzx0713/FreeChat/utils/ratelimit"
)

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, cfg *config.Config,
	messageHandler *handlers.MessageHandler,
	fileHandler *handlers.FileHandler,
	imageHandler *handlers.ImageHandler,
	hub *ws.Hub,
	limiter ratelimit.Limiter,
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Use(pkgmiddlewares.RequestIDMiddleware())

	// WebSocket 路由要在 AsyncMiddleware 之前注册，
	// 升级请求进了 Worker Pool 会把 worker 占死
	r.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(hub, cfg.Chat.DefaultSession, c)
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"Status": "OK",
		})
	})

	// 并发上限要在进 Worker Pool 排队之前挡掉
	if cfg.Server.MaxConcurrency > 0 {
		r.Use(pkgmiddlewares.MaxConcurrencyMiddleware(cfg.Server.MaxConcurrency))
	}

	r.Use(middlewares.AsyncMiddleware())

	// 写操作按 IP 限流
	var writeLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled && limiter != nil {
		writeLimit = pkgmiddlewares.RateLimitMiddleware(
			limiter,
			cfg.RateLimit.Limit,
			time.Duration(cfg.RateLimit.Window)*time.Second,
		)
	} else {
		writeLimit = func(c *gin.Context) { c.Next() }
	}

	// 聊天历史
	r.GET("/messages", messageHandler.GetMessages)
	r.POST("/messages", writeLimit, messageHandler.PostMessage)
	r.DELETE("/messages", messageHandler.ClearMessages)

	// 附件登记表
	r.GET("/files", fileHandler.GetFiles)
	r.POST("/files", fileHandler.SaveFile)
	r.DELETE("/files", fileHandler.DeleteFile)

	// Telegram 文件中转
	r.POST("/upload", writeLimit, fileHandler.Upload)
	r.GET("/file/:id", fileHandler.Download)
	r.GET("/telegram/test", fileHandler.TestBot)

	// 图床代理
	r.POST("/upload-image", writeLimit, imageHandler.UploadImage)
}
