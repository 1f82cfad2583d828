package providers

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-agent/conversation/domain"
	"github.com/AzielCF/az-agent/core/config"
)

// New builds the language model selected by AI_PROVIDER.
func New(ctx context.Context, cfg config.AIConfig, keys config.APIKeysConfig) (domain.LanguageModel, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaModel(cfg.BaseURL, cfg.Model), nil
	case "openai":
		if keys.OpenAI == "" {
			return nil, fmt.Errorf("AI_PROVIDER=openai requires OPENAI_API_KEY")
		}
		return NewOpenAIModel(keys.OpenAI, cfg.Model), nil
	case "gemini":
		if keys.Gemini == "" {
			return nil, fmt.Errorf("AI_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return NewGeminiModel(ctx, keys.Gemini, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
