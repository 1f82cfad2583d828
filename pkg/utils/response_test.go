package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_UsesTypedStatus(t *testing.T) {
	app := fiber.New()
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return ErrorResponse(c, fmt.Errorf("booking: %w", pkgError.ConflictError("slot taken")))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return ErrorResponse(c, errors.New("disk on fire"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "CONFLICT_ERROR", body["code"])
	assert.Equal(t, "slot taken", body["error"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/plain", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPagination(t *testing.T) {
	page, limit := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageLimit, limit)

	_, limit = NormalizePage(3, 1000)
	assert.Equal(t, MaxPageLimit, limit)

	p := NewPagination(2, 20, 41)
	assert.Equal(t, Pagination{Current: 2, Pages: 3, Total: 41}, p)
	assert.Equal(t, 0, NewPagination(1, 20, 0).Pages)
}

func TestConversationID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	id := ConversationID(at)
	assert.Regexp(t, `^conv_1700000000123_[a-z0-9]{9}$`, id)
	assert.NotEqual(t, id, ConversationID(at))
}
