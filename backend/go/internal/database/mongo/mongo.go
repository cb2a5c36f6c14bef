package mongo

import (
	"Jarvis_Memory/backend/go/internal/config"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient 封装了 MongoDB 客户端实例。连接的生命周期由宿主应用管理，
// 不使用进程级单例。
type MongoClient struct {
	Client *mongo.Client
	Config *config.MongoConfig
}

// Connect 建立到 MongoDB 的连接并验证其可用性。
func Connect(ctx context.Context, cfg *config.MongoConfig) (*MongoClient, error) {
	clientOptions := options.Client().ApplyURI(cfg.Address)
	// 如果配置了用户名和密码，则设置认证信息。
	if cfg.Username != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("无法连接到 MongoDB: %w", err)
	}

	// 检查连接是否成功（Ping 数据库）。
	if err = c.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("无法 Ping MongoDB: %w", err)
	}

	return &MongoClient{Client: c, Config: cfg}, nil
}

// Database 返回配置中指定的数据库句柄。
func (c *MongoClient) Database() *mongo.Database {
	return c.Client.Database(c.Config.Database)
}

// Close 安全地断开 MongoDB 客户端连接。
func (c *MongoClient) Close(ctx context.Context) error {
	if c.Client != nil {
		return c.Client.Disconnect(ctx)
	}
	return nil
}

// HealthCheck 检查 MongoDB 连接的健康状况。
func (c *MongoClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("MongoDB 客户端未初始化")
	}
	return c.Client.Ping(ctx, nil)
}
