package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/utils/ratelimit"
)

// RateLimitMiddleware 按客户端 IP 限制写操作的频率
// 限流器故障时放行（fail-open），聊天可用性优先
func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP(), limit, window)
		if err == nil && !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too Many Requests - please slow down",
			})
			return
		}
		c.Next()
	}
}

// MaxConcurrencyMiddleware 用带缓冲的信号量限制同时在处理的请求数
func MaxConcurrencyMiddleware(maxConcurrent int) gin.HandlerFunc {
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Service Unavailable - Too many concurrent requests",
			})
		}
	}
}
