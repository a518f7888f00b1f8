package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey 请求 ID 在 gin.Context 里的键
const RequestIDKey = "request_id"

// RequestIDHeader 透传/返回请求 ID 用的响应头
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware 给每个请求分配一个 ID，客户端带了就沿用
// 排查问题时可以用它把访问日志和业务日志串起来
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}
