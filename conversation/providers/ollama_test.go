package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AzielCF/az-agent/conversation/domain"
	"github.com/AzielCF/az-agent/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaModel_Generate(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"Hello from the model","done":true}`))
	}))
	defer srv.Close()

	m := NewOllamaModel(srv.URL+"/", "")
	assert.Equal(t, "ollama", m.Name())

	text, err := m.Generate(context.Background(), domain.GenerationRequest{
		System:      "be nice",
		Prompt:      "hi",
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from the model", text)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.Equal(t, "be nice", got.System)
	assert.Equal(t, "hi", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, 500, got.Options.NumPredict)
	assert.Equal(t, 0.9, got.Options.TopP)
}

func TestOllamaModel_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaModel(srv.URL, "missing").Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewOllamaModel(srv.URL, "").Generate(ctx, domain.GenerationRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOllamaModel_RespectsDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewOllamaModel(srv.URL, "").Generate(ctx, domain.GenerationRequest{Prompt: "hi"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	m, err := New(ctx, config.AIConfig{Provider: "ollama"}, config.APIKeysConfig{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", m.Name())

	m, err = New(ctx, config.AIConfig{Provider: "openai"}, config.APIKeysConfig{OpenAI: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Name())

	_, err = New(ctx, config.AIConfig{Provider: "openai"}, config.APIKeysConfig{})
	assert.Error(t, err)
	_, err = New(ctx, config.AIConfig{Provider: "gemini"}, config.APIKeysConfig{})
	assert.Error(t, err)
	_, err = New(ctx, config.AIConfig{Provider: "bard"}, config.APIKeysConfig{})
	assert.Error(t, err)
}
