package rest

import (
	"github.com/AzielCF/az-agent/pkg/taskpool"
	"github.com/gofiber/fiber/v2"
)

// WorkerPoolStats returns real-time task pool statistics.
func WorkerPoolStats(pool *taskpool.TaskPool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pool == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Task pool not initialized",
			})
		}
		return c.JSON(pool.GetStats())
	}
}
