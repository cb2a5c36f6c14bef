package api

import (
	"Jarvis_Memory/backend/go/internal/config"
	"Jarvis_Memory/backend/go/internal/memory/service"
	"Jarvis_Memory/backend/go/internal/memory/store"
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"Jarvis_Memory/backend/go/pkg/ratelimiter"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, checkers map[string]HealthChecker) (*gin.Engine, *service.MemoryService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stores := service.Stores{
		Cache:     store.NewMemCache(),
		Documents: store.NewMemDocuments(),
		Graph:     store.NewMemGraph(),
		Vectors:   store.NewMemVectors(),
	}
	svc := service.NewMemoryService(stores, config.EngineConfig{}, logger.New("api_test", "", ""))
	handler := NewHandler(svc, checkers)
	return SetupRouter(handler, nil), svc
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStoreAndFetchOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/memory/facts", StoreFactRequest{
		UserID:   "u-1",
		Category: "location",
		Value:    "Paris",
		Source:   "user_explicit",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.StorageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, models.StatusStored, stored.Status)

	rec = doJSON(router, http.MethodGet, "/api/v1/memory/context?user_id=u-1&category=location", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fetched service.FetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.NotNil(t, fetched.Fact)
	assert.Equal(t, "Paris", fetched.Fact.Value)
	assert.Equal(t, models.TargetCache, fetched.Source)
}

func TestFetchMissReturns404WithTrace(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodGet, "/api/v1/memory/context?user_id=u-9&query=coffee", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "trace")
}

func TestStoreFactRejectsBadRequests(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	// Missing required fields.
	rec := doJSON(router, http.MethodPost, "/api/v1/memory/facts", gin.H{"user_id": "u-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown category.
	rec = doJSON(router, http.MethodPost, "/api/v1/memory/facts", StoreFactRequest{
		UserID: "u-1", Category: "made_up", Value: "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed user id maps to 403, not 400.
	rec = doJSON(router, http.MethodPost, "/api/v1/memory/facts", StoreFactRequest{
		UserID: "../root", Category: "location", Value: "Paris",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBatchEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodPost, "/api/v1/memory/facts/batch", StoreBatchRequest{
		UserID: "u-1",
		Candidates: []models.FactCandidate{
			{Category: models.CategoryLocation, Value: "Paris", Source: models.SourceUserExplicit},
			{Category: "made_up", Value: "whatever", Source: models.SourceUserExplicit},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Results []models.StorageResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, models.StatusStored, resp.Results[0].Status)
	assert.Equal(t, models.StatusFailed, resp.Results[1].Status)
}

func TestEraseUserEndpoint(t *testing.T) {
	router, svc := newTestRouter(t, nil)
	ctx := context.Background()

	_, err := svc.StoreFact(ctx, "u-1", models.FactCandidate{
		Category: models.CategoryLocation, Value: "Paris", Source: models.SourceUserExplicit,
	})
	require.NoError(t, err)

	rec := doJSON(router, http.MethodDelete, "/api/v1/memory/users/u-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	fetched, err := svc.FetchContext(ctx, "u-1", "", models.CategoryLocation)
	require.NoError(t, err)
	assert.Nil(t, fetched.Fact)
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestHealthzAggregatesCheckers(t *testing.T) {
	router, _ := newTestRouter(t, map[string]HealthChecker{
		"redis": fakeChecker{},
		"mongo": fakeChecker{err: errors.New("mongo down")},
	})

	rec := doJSON(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "mongo down")
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(ratelimiter.NewTokenBucket(0.001, 2)))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
