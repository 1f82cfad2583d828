package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_AllUp(t *testing.T) {
	h := NewHealth(func() int { return 3 }).
		With("database", func(context.Context) error { return nil }).
		With("valkey", func(context.Context) error { return nil })

	report := h.Run(context.Background())
	assert.Equal(t, "ok", report.Status)
	assert.Len(t, report.Checks, 2)
	assert.Equal(t, "up", report.Checks["database"].Status)
	assert.Equal(t, 3, report.WebsocketClients)
}

func TestHealth_Degraded(t *testing.T) {
	h := NewHealth(nil).
		With("database", func(context.Context) error { return nil }).
		With("smtp", func(context.Context) error { return errors.New("dial tcp: refused") })

	app := fiber.New()
	h.RegisterRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body struct {
		Code    string       `json:"code"`
		Results HealthReport `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "DEGRADED", body.Code)
	assert.Equal(t, "down", body.Results.Checks["smtp"].Status)
	assert.Equal(t, "dial tcp: refused", body.Results.Checks["smtp"].Error)
}

func TestHealth_RespectsDeadline(t *testing.T) {
	h := NewHealth(nil).With("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := h.Run(ctx)
	assert.Equal(t, "degraded", report.Status)
}
