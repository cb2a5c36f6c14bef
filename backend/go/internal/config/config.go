package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address    string `yaml:"address"`    // MongoDB 服务器地址
	Username   string `yaml:"username"`   // 用户名
	Password   string `yaml:"password"`   // 密码
	Database   string `yaml:"database"`   // 数据库名称
	Collection string `yaml:"collection"` // 事实集合名称
}

// Neo4jConfig 定义了 Neo4j 图数据库的连接配置。
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`      // Neo4j 数据库URI (例如: "bolt://localhost:7687")
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// MilvusConfig 定义了 Milvus 向量数据库的连接和集合配置。
type MilvusConfig struct {
	Address        string `yaml:"address"`        // Milvus 服务地址
	CollectionName string `yaml:"collectionName"` // 集合名称
	VectorField    string `yaml:"vectorField"`    // 向量字段名称
	Dim            int    `yaml:"dim"`            // 向量维度
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 抽取结果主题
	GroupID string   `yaml:"groupID"` // 消费者组ID
}

// DatabaseConfigs 包含所有后端存储的配置。
type DatabaseConfigs struct {
	Redis   RedisConfig  `yaml:"redis"`   // 快速缓存
	MongoDB MongoConfig  `yaml:"mongodb"` // 结构化文档存储（事实的权威来源）
	Neo4j   Neo4jConfig  `yaml:"neo4j"`   // 关系图谱存储
	Milvus  MilvusConfig `yaml:"milvus"`  // 语义向量存储
	Kafka   KafkaConfig  `yaml:"kafka"`   // 抽取批次的异步通道
}

// EmbeddingConfig 包含了不同 Embedding 提供商的配置。
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // Embedding 提供商 (例如: "ollama", "openai", "huggingface")
	Model    string `yaml:"model"`    // 要使用的模型名称
	APIKey   string `yaml:"apiKey"`   // API 密钥（部分提供商需要）
	BaseURL  string `yaml:"baseURL"`  // 服务基础 URL（部分提供商需要）
}

// EngineConfig 定义了记忆解析引擎自身的可调参数。
type EngineConfig struct {
	// MinStorageConfidence 是入库的最低置信度，低于此值的事实被拒绝（无操作结果，非错误）。
	MinStorageConfidence float64 `yaml:"minStorageConfidence"`
	// VectorSimilarityThreshold 是语义检索的最低相似度，低于此值的匹配按未命中处理。
	VectorSimilarityThreshold float64 `yaml:"vectorSimilarityThreshold"`
	// StoreTimeout 是单个存储操作的超时时间（例如: "300ms"）。
	StoreTimeout string `yaml:"storeTimeout"`
	// TraceBufferSize 是每个用户保留的调试追踪条目上限。
	TraceBufferSize int `yaml:"traceBufferSize"`
	// TraceUserCapacity 是同时保留调试追踪的用户数上限（LRU 淘汰）。
	TraceUserCapacity int `yaml:"traceUserCapacity"`
}

// StoreTimeoutDuration 解析 StoreTimeout，解析失败时返回默认的 300ms。
func (e *EngineConfig) StoreTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.StoreTimeout)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// ServerConfig 定义了 HTTP API 服务的配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8085")
}

// RateLimiterConfig 定义了 API 限流器的配置（令牌桶算法）。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"`     // 每秒生成的令牌数
	Capacity int     `yaml:"capacity"` // 桶容量（突发大小）
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App         AppInfo           `yaml:"app"`         // 应用程序信息
	Server      ServerConfig      `yaml:"server"`      // HTTP 服务配置
	Logger      LoggerConfig      `yaml:"logger"`      // 日志记录器配置
	Embedding   EmbeddingConfig   `yaml:"embedding"`   // Embedding 配置部分
	Databases   DatabaseConfigs   `yaml:"databases"`   // 后端存储配置
	Engine      EngineConfig      `yaml:"engine"`      // 记忆引擎参数
	RateLimiter RateLimiterConfig `yaml:"rateLimiter"` // API 限流配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 为引擎参数填充合理的默认值，使配置文件可以只覆盖关心的项。
func applyDefaults(cfg *AppConfig) {
	if cfg.Engine.MinStorageConfidence <= 0 {
		cfg.Engine.MinStorageConfidence = 0.40
	}
	if cfg.Engine.VectorSimilarityThreshold <= 0 {
		cfg.Engine.VectorSimilarityThreshold = 0.75
	}
	if cfg.Engine.TraceBufferSize <= 0 {
		cfg.Engine.TraceBufferSize = 100
	}
	if cfg.Engine.TraceUserCapacity <= 0 {
		cfg.Engine.TraceUserCapacity = 1024
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8085"
	}
}
