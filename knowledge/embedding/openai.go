package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultOpenAIModel = openai.EmbeddingModelTextEmbedding3Small

type OpenAIEmbedder struct {
	client openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey, model string, opts ...option.RequestOption) *OpenAIEmbedder {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	m := openai.EmbeddingModel(model)
	if model == "" {
		m = DefaultOpenAIModel
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: m}
}

func (e *OpenAIEmbedder) Name() string { return "openai" }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if int(d.Index) >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector %d", i)
		}
	}
	return out, nil
}
