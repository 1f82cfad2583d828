package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AzielCF/az-agent/agents/application"
	"github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/agents/repository"
	"github.com/AzielCF/az-agent/core/database"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) (*fiber.App, *application.AgentService) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	repo := repository.NewAgentGormRepository(db)
	require.NoError(t, repo.InitSchema(context.Background()))
	svc := application.NewAgentService(repo, domain.DefaultOwnerID)

	app := fiber.New()
	api := app.Group("/api")
	NewAgentHandler(svc).RegisterRoutes(api)
	NewWidgetHandler(svc, "https://agents.example.com/").RegisterRoutes(api)
	return app, svc
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestAgentHandler_CRUD(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/agents",
		`{"name":"Noa","language":"he","appointmentConfig":{"duration":20}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created domain.Agent
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "default-user", created.OwnerID)
	assert.Equal(t, 20, created.AppointmentConfig.Duration)

	resp, body = doJSON(t, app, http.MethodPut, "/api/agents/"+created.ID, `{"personality":"direct"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated domain.Agent
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "direct", updated.Personality)
	assert.Equal(t, "Noa", updated.Name)

	resp, body = doJSON(t, app, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Agent
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/agents/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// soft-deleted agents disappear from listings but stay readable
	_, body = doJSON(t, app, http.MethodGet, "/api/agents?ownerId=default-user", "")
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/agents/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAgentHandler_Errors(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/agents", `{"name":"x","language":"fr"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION_ERROR")

	resp, body = doJSON(t, app, http.MethodGet, "/api/agents/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND_ERROR")

	resp, _ = doJSON(t, app, http.MethodPut, "/api/agents/missing", `{"name":"y"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWidgetHandler(t *testing.T) {
	app, svc := setupApp(t)

	agent := &domain.Agent{
		Name:         "Widget bot",
		WidgetConfig: domain.WidgetConfig{Position: domain.PositionTopLeft, Size: domain.SizeLarge},
	}
	require.NoError(t, svc.Create(context.Background(), agent))

	resp, body := doJSON(t, app, http.MethodGet, "/api/widget/"+agent.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg WidgetResponse
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, "Widget bot", cfg.Name)
	assert.Equal(t, "#3b82f6", cfg.WidgetConfig.Theme.PrimaryColor)

	_, body = doJSON(t, app, http.MethodGet, "/api/widget/"+agent.ID+"/embed", "")
	assert.Contains(t, string(body), "https://agents.example.com/api/widget/"+agent.ID+"/script")

	resp, body = doJSON(t, app, http.MethodGet, "/api/widget/"+agent.ID+"/script", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	script := string(body)
	assert.Contains(t, script, "agentId: '"+agent.ID+"'")
	assert.Contains(t, script, "top:20px;left:20px")
	assert.Contains(t, script, "width:420px")

	resp, _ = doJSON(t, app, http.MethodGet, "/api/widget/unknown/script", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
