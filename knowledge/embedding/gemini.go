package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "text-embedding-004"

type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Name() string { return "gemini" }

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
