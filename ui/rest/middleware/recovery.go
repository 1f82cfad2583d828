package middleware

import (
	"errors"

	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a handler panic into the usual {error, code} body. Typed
// errors keep their status; anything else is a 500 without the panic detail.
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logrus.WithField("path", c.Path()).Errorf("[REST] Panic recovered: %v", r)

			var generic pkgError.GenericError
			if cause, ok := r.(error); ok && errors.As(cause, &generic) {
				err = utils.ErrorResponse(c, generic)
				return
			}
			err = utils.ErrorResponse(c, pkgError.InternalServerError("internal server error"))
		}()

		return c.Next()
	}
}
