package providers

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-agent/conversation/domain"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultOpenAIModel = "gpt-4o-mini"

type OpenAIModel struct {
	client openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string, opts ...option.RequestOption) *OpenAIModel {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIModel{client: openai.NewClient(opts...), model: model}
}

func (m *OpenAIModel) Name() string { return "openai" }

func (m *OpenAIModel) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(m.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		TopP:        openai.Float(req.TopP),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
