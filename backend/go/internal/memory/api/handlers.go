package api

import (
	"Jarvis_Memory/backend/go/internal/memory/service"
	"Jarvis_Memory/backend/go/internal/models"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker 是一个可被探活的存储客户端。
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service  *service.MemoryService
	checkers map[string]HealthChecker
}

// NewHandler 创建一个新的 Handler 实例。
// checkers 以存储名称为键, 用于 /healthz 聚合探活。
func NewHandler(s *service.MemoryService, checkers map[string]HealthChecker) *Handler {
	return &Handler{service: s, checkers: checkers}
}

// StoreFactRequest 定义了单条事实写入请求的 JSON 结构。
type StoreFactRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Value        string `json:"value" binding:"required"`
	Source       string `json:"source"`
	OriginalText string `json:"original_text"`
}

// StoreFact 处理单条事实的写入请求。
func (h *Handler) StoreFact(c *gin.Context) {
	var req StoreFactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate := models.FactCandidate{
		Category:     models.Category(req.Category),
		Value:        req.Value,
		Source:       models.Source(req.Source),
		OriginalText: req.OriginalText,
	}
	result, err := h.service.StoreFact(c.Request.Context(), req.UserID, candidate)
	if err != nil {
		writeStoreError(c, result, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// StoreBatchRequest 定义了批量写入请求的 JSON 结构。
type StoreBatchRequest struct {
	UserID     string                 `json:"user_id" binding:"required"`
	TraceID    string                 `json:"trace_id"`
	Candidates []models.FactCandidate `json:"candidates" binding:"required"`
}

// StoreBatch 处理一批事实的写入请求, 返回逐条结果。
func (h *Handler) StoreBatch(c *gin.Context) {
	var req StoreBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch := &models.ExtractionBatch{
		UserID:     req.UserID,
		TraceID:    req.TraceID,
		Candidates: req.Candidates,
	}
	results, err := h.service.StoreFactsBatch(c.Request.Context(), batch)
	if err != nil {
		writeStoreError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// FetchContext 处理级联读取请求。
// 查询参数: user_id (必填), query, category。
func (h *Handler) FetchContext(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	query := c.Query("query")
	category := models.Category(c.Query("category"))

	result, err := h.service.FetchContext(c.Request.Context(), userID, query, category)
	if err != nil {
		writeStoreError(c, nil, err)
		return
	}
	if result.Fact == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "no matching fact", "trace": result.Trace})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTrace 返回某个用户最近的调试追踪。
func (h *Handler) GetTrace(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	trace, err := h.service.GetDebugTrace(c.Request.Context(), userID)
	if err != nil {
		writeStoreError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "trace": trace})
}

// EraseUser 删除某个用户在所有存储中的全部事实。
func (h *Handler) EraseUser(c *gin.Context) {
	userID := c.Param("id")

	if err := h.service.EraseUser(c.Request.Context(), userID); err != nil {
		writeStoreError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user memory erased", "user_id": userID})
}

// PruneExpired 触发一次针对单个用户的过期清理。
func (h *Handler) PruneExpired(c *gin.Context) {
	userID := c.Param("id")

	pruned, err := h.service.PruneExpired(c.Request.Context(), userID)
	if err != nil {
		writeStoreError(c, nil, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "pruned": pruned})
}

// Healthz 聚合所有存储客户端的探活结果。
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	stores := gin.H{}
	for name, checker := range h.checkers {
		if err := checker.HealthCheck(c.Request.Context()); err != nil {
			stores[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		stores[name] = "ok"
	}

	c.JSON(status, gin.H{"stores": stores})
}

// writeStoreError 把引擎的错误类型映射到 HTTP 状态码。
func writeStoreError(c *gin.Context, result *models.StorageResult, err error) {
	var validationErr *models.ValidationError
	var ownershipErr *models.OwnershipError
	var partialErr *models.PartialWriteError
	var unavailableErr *models.StoreUnavailableError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ownershipErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &partialErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
	case errors.As(err, &unavailableErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
