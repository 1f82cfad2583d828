package rest

import (
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Settings exposes the non-secret runtime configuration to admins.
func Settings(snapshot func() map[string]any) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Current settings",
			Results: snapshot(),
		})
	}
}
