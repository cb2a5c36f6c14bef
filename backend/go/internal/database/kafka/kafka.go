package kafka

import (
	"Jarvis_Memory/backend/go/internal/config"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaClient 持有抽取结果主题的 reader。连接的生命周期由宿主应用管理，
// 不使用进程级单例。
type KafkaClient struct {
	Reader *kafka.Reader
	Config *config.KafkaConfig
}

// Connect 初始化 Kafka 客户端。首次调用时会连接到 Kafka 并确保抽取结果
// 主题存在。
func Connect(cfg *config.KafkaConfig) (*KafkaClient, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("未配置 Kafka topic")
	}

	// 1. 建立管理连接，确认/创建主题。
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka 初始化连接失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	exists := false
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			exists = true
			break
		}
	}
	if !exists {
		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             cfg.Topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
		}
	}

	// 2. 创建用于消费抽取批次的 Reader。
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "memory-service"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     groupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
		MaxAttempts: 10,
		Dialer: &kafka.Dialer{
			Timeout: 10 * time.Second,
		},
	})

	return &KafkaClient{Reader: reader, Config: cfg}, nil
}

// Close 安全地关闭 Kafka 连接。
func (c *KafkaClient) Close() error {
	if c == nil || c.Reader == nil {
		return nil
	}
	if err := c.Reader.Close(); err != nil {
		return fmt.Errorf("关闭 Kafka reader 失败: %w", err)
	}
	return nil
}
