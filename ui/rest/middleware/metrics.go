package middleware

import (
	"strconv"
	"time"

	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency by route pattern so path
// parameters do not explode label cardinality.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		metrics.IncActiveConnections()
		defer metrics.DecActiveConnections()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		metrics.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
