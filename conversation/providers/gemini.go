package providers

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-agent/conversation/domain"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
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
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Name() string { return "gemini" }

func (m *GeminiModel) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
		TopP:        genai.Ptr(float32(req.TopP)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
