package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/conversation/application"
	"github.com/AzielCF/az-agent/conversation/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgents struct{}

func (stubAgents) GetActive(_ context.Context, id string) (*agentDomain.Agent, error) {
	return &agentDomain.Agent{ID: id, Name: "Bloom"}, nil
}
func (stubAgents) RecordConversation(context.Context, string) error { return nil }

type echoModel struct{}

func (echoModel) Name() string { return "echo" }
func (echoModel) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	return "You said: " + req.Prompt, nil
}

func setupApp() *fiber.App {
	o := application.NewOrchestrator(stubAgents{}, nil, echoModel{}, nil, application.DefaultSettings())
	app := fiber.New()
	NewConversationHandler(o).RegisterRoutes(app.Group("/api"))
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestChat(t *testing.T) {
	status, body := post(t, setupApp(), "/api/conversation/chat",
		`{"message":"I want to book a demo","agentId":"a1","conversationHistory":[{"sender":"user","message":"hi"}],"userId":"u1"}`)
	require.Equal(t, http.StatusOK, status, string(body))

	var res domain.TurnResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "You said: I want to book a demo", res.Response)
	assert.Equal(t, domain.IntentAppointment, res.Intent)
	require.NotEmpty(t, res.Actions)
	assert.Equal(t, domain.ActionScheduleAppointment, res.Actions[0].Type)
	assert.True(t, strings.HasPrefix(res.ConversationID, "conv_"))
}

func TestIntent(t *testing.T) {
	status, body := post(t, setupApp(), "/api/conversation/intent", `{"message":"how much is the pro plan","agentId":"a1"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"intent":"purchase"}`, string(body))
}

func TestValidation(t *testing.T) {
	app := setupApp()

	status, body := post(t, app, "/api/conversation/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "VALIDATION_ERROR")

	status, _ = post(t, app, "/api/conversation/intent", `{"agentId":"a1","message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, app, "/api/conversation/chat", `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}
