package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestRecovery_GenericError(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/boom", func(*fiber.Ctx) error {
		panic(pkgError.ValidationError("bad input"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var res errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "VALIDATION_ERROR", res.Code)
	assert.Equal(t, "bad input", res.Error)
}

func TestRecovery_PlainPanic(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery())
	app.Get("/boom", func(*fiber.Ctx) error {
		panic("nil map")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var res errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", res.Code)
	assert.Equal(t, "internal server error", res.Error)
}

func TestMetrics_PassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/agents/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/agents/abc", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
