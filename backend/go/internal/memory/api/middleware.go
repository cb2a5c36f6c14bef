package api

import (
	"net/http"

	"Jarvis_Memory/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RateLimit 创建一个 Gin 中间件, 超出限流阈值的请求返回 429。
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
