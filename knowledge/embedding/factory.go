package embedding

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-agent/core/config"
	"github.com/AzielCF/az-agent/knowledge/domain"
	"github.com/sirupsen/logrus"
)

// New builds the embedder selected by AI_EMBEDDING_PROVIDER. Remote providers
// without credentials fall back to the hash embedder.
func New(ctx context.Context, cfg config.AIConfig, keys config.APIKeysConfig) (domain.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "", "hash":
		return NewHashEmbedder(DefaultHashDimensions), nil
	case "openai":
		if keys.OpenAI == "" {
			logrus.Warn("[KNOWLEDGE] OPENAI_API_KEY missing, using hash embeddings")
			return NewHashEmbedder(DefaultHashDimensions), nil
		}
		return NewOpenAIEmbedder(keys.OpenAI, cfg.EmbeddingModel), nil
	case "gemini":
		if keys.Gemini == "" {
			logrus.Warn("[KNOWLEDGE] GEMINI_API_KEY missing, using hash embeddings")
			return NewHashEmbedder(DefaultHashDimensions), nil
		}
		return NewGeminiEmbedder(ctx, keys.Gemini, cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}
