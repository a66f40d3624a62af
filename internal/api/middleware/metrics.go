package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver HTTP 指标记录，由 pkg/metrics.Metrics 实现
type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

// Metrics 以路由模板为标签记录请求数与耗时
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observer.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
