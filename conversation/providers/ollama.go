package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-agent/conversation/domain"
	"github.com/valyala/fasthttp"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"
	ollamaMaxTimeout   = 2 * time.Minute
)

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// OllamaModel calls the /api/generate endpoint of an Ollama server.
type OllamaModel struct {
	client  *fasthttp.Client
	baseURL string
	model   string
}

func NewOllamaModel(baseURL, model string) *OllamaModel {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaModel{
		client: &fasthttp.Client{
			Name:                "az-agent",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

func (m *OllamaModel) Name() string { return "ollama" }

func (m *OllamaModel) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := json.Marshal(ollamaRequest{
		Model:  m.model,
		System: req.System,
		Prompt: req.Prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return "", err
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(m.baseURL + "/api/generate")
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(ollamaMaxTimeout)
	}
	if err := m.client.DoDeadline(httpReq, httpResp, deadline); err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}

	var out ollamaResponse
	if err := json.Unmarshal(httpResp.Body(), &out); err != nil {
		return "", fmt.Errorf("ollama response (status %d): %w", httpResp.StatusCode(), err)
	}
	if httpResp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s", httpResp.StatusCode(), out.Error)
	}
	return out.Response, nil
}
