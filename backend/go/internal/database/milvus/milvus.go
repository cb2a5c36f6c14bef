package milvus

import (
	"Jarvis_Memory/backend/go/internal/config"
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 事实集合的固定 Schema 字段。记忆引擎不做运行时 Schema 配置：
// 字段集是封闭的，与 store.MilvusStore 的读写代码一一对应。
const (
	FieldFactID   = "fact_id"
	FieldUserID   = "user_id"
	FieldCategory = "category"
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。连接的生命周期由
// 宿主应用管理，不使用进程级单例。
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// Connect 建立到 Milvus 的连接。
func Connect(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 Milvus: %w", err)
	}
	return &MilvusClient{Client: c, Config: cfg}, nil
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus 客户端未初始化")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus 健康检查失败: %w", err)
	}
	return nil
}

// EnsureCollection 确保事实集合存在（不存在则创建）并加载到内存。
// Schema: fact_id (VarChar, 主键), user_id (VarChar), category (VarChar),
// embedding (FloatVector, 维度来自配置)，索引为 HNSW + COSINE。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(collName).
			WithDescription("user-scoped fact embeddings for semantic recall").
			WithField(entity.NewField().
				WithName(FieldFactID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(64).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(FieldUserID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(128)).
			WithField(entity.NewField().
				WithName(FieldCategory).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(64)).
			WithField(entity.NewField().
				WithName(c.Config.VectorField).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(c.Config.Dim)))

		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 96)
		if err != nil {
			return fmt.Errorf("构建索引配置失败: %w", err)
		}
		if err := c.Client.CreateIndex(ctx, collName, c.Config.VectorField, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", c.Config.VectorField, err)
		}
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

// Insert 向事实集合插入一条带有用户归属元数据的向量。
func (c *MilvusClient) Insert(ctx context.Context, factID, userID, category string, vector []float32) error {
	idCol := entity.NewColumnVarChar(FieldFactID, []string{factID})
	userCol := entity.NewColumnVarChar(FieldUserID, []string{userID})
	catCol := entity.NewColumnVarChar(FieldCategory, []string{category})
	vecCol := entity.NewColumnFloatVector(c.Config.VectorField, c.Config.Dim, [][]float32{vector})

	if _, err := c.Client.Insert(ctx, c.Config.CollectionName, "", idCol, userCol, catCol, vecCol); err != nil {
		return fmt.Errorf("向 Milvus 插入数据失败: %w", err)
	}
	return nil
}

// DeleteByExpr 按布尔表达式删除记录，例如 `fact_id == "..."`。
func (c *MilvusClient) DeleteByExpr(ctx context.Context, expr string) error {
	if err := c.Client.Delete(ctx, c.Config.CollectionName, "", expr); err != nil {
		return fmt.Errorf("从 Milvus 删除数据失败: %w", err)
	}
	return nil
}

// SearchScoped 在事实集合中做相似度搜索，并通过布尔表达式把结果限制在
// 单个用户的数据内。返回的结果包含 fact_id、user_id、category 输出字段。
func (c *MilvusClient) SearchScoped(ctx context.Context, vector []float32, filterExpr string, topK int) ([]client.SearchResult, error) {
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("构建搜索参数失败: %w", err)
	}

	results, err := c.Client.Search(
		ctx,
		c.Config.CollectionName,
		nil,
		filterExpr,
		[]string{FieldFactID, FieldUserID, FieldCategory},
		[]entity.Vector{entity.FloatVector(vector)},
		c.Config.VectorField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("Milvus 相似度搜索失败: %w", err)
	}
	return results, nil
}
