package redis

import (
	"Jarvis_Memory/backend/go/internal/config"
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisClient 封装了 Redis 客户端实例。连接的生命周期由宿主应用管理：
// 在组装阶段调用 Connect，退出时调用 Close，不使用进程级单例。
type RedisClient struct {
	Client *redis.Client
	Config *config.RedisConfig
}

// Connect 建立到 Redis 的连接并验证其可用性。
func Connect(ctx context.Context, cfg *config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用 Ping 检查连接是否成功。
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	return &RedisClient{Client: rdb, Config: cfg}, nil
}

// Close 安全地关闭 Redis 连接。
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// HealthCheck 检查 Redis 连接的健康状况。
func (c *RedisClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Redis 客户端未初始化")
	}
	return c.Client.Ping(ctx).Err()
}
