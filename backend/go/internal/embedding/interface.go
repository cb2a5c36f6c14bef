package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
// 向量存储适配器通过它把事实文本映射为语义向量。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
