package api

import (
	"Jarvis_Memory/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
// limiter 为 nil 时不启用限流。
func SetupRouter(h *Handler, limiter ratelimiter.RateLimiter) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.GET("/healthz", h.Healthz)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1/memory")
	if limiter != nil {
		apiV1.Use(RateLimit(limiter))
	}
	{
		apiV1.POST("/facts", h.StoreFact)
		apiV1.POST("/facts/batch", h.StoreBatch)
		apiV1.GET("/context", h.FetchContext)
		apiV1.GET("/trace", h.GetTrace)
		apiV1.DELETE("/users/:id", h.EraseUser)
		apiV1.POST("/users/:id/prune", h.PruneExpired)
	}

	return r
}
