package embedding

import (
	"Jarvis_Memory/backend/go/internal/config"
	"fmt"
)

// NewEmdModel 根据配置创建并返回一个新的 Embedding 模型实例。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg *config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model)
	case "huggingface":
		return NewHuggingFaceModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
