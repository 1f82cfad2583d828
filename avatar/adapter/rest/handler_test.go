package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AzielCF/az-agent/avatar/application"
	"github.com/AzielCF/az-agent/avatar/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	synth := application.NewSilentSynthesizer(t.TempDir(), "/statics/audio")
	app := fiber.New()
	NewAvatarHandler(application.NewService(synth)).RegisterRoutes(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestAvatarHandler_Gallery(t *testing.T) {
	app := setupApp(t)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/avatars/gallery", nil))
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Avatars []domain.GalleryAvatar `json:"avatars"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Len(t, res.Avatars, 10)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/avatars/gallery/avatar-004", nil))
	assert.Equal(t, http.StatusOK, status)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/avatars/gallery/avatar-404", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "NOT_FOUND_ERROR")
}

func TestAvatarHandler_Animation(t *testing.T) {
	app := setupApp(t)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/avatars/animations/listening", nil))
	require.Equal(t, http.StatusOK, status)
	var anim domain.Animation
	require.NoError(t, json.Unmarshal(body, &anim))
	assert.Equal(t, domain.Animation{Type: domain.AnimationListening, Duration: 1500, Loop: true}, anim)
}

func TestAvatarHandler_LipSync(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/avatars/lipsync", strings.NewReader(`{"text":"Hello","agentId":"agent-1"}`))
	req.Header.Set("Content-Type", "application/json")
	status, body := do(t, app, req)
	require.Equal(t, http.StatusOK, status)
	var res domain.LipSyncResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Contains(t, res.AudioURL, "/statics/audio/audio_")

	req = httptest.NewRequest(http.MethodPost, "/api/avatars/lipsync", strings.NewReader(`{"text":"Hello"}`))
	req.Header.Set("Content-Type", "application/json")
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
}
