package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/internal/utils"
)

// AsyncMiddleware 把请求处理提交到 Worker Pool 排队执行
// 高并发下 goroutine 数量有上界，队列满时请求变慢而不是被拒绝
func AsyncMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 没有初始化协程池时降级为同步执行
		if utils.GlobalWorkerPool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})

		// 主 goroutine 阻塞等待 done，同一时间只有一个 goroutine
		// 在操作 gin.Context，所以闭包捕获 c 是安全的
		task := func() {
			defer close(done)
			c.Next()
		}

		utils.GlobalWorkerPool.Submit(task)
		<-done
	}
}
