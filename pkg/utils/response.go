package utils

import (
	"errors"
	"net/http"

	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ResponseData is the envelope used by the operational endpoints under ui/rest.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// ErrorResponse renders err as {"error", "code"} using its GenericError status.
// Errors that carry no status are logged and reported as 500.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var generic pkgError.GenericError
	if errors.As(err, &generic) {
		return c.Status(generic.StatusCode()).JSON(fiber.Map{
			"error": generic.Error(),
			"code":  generic.ErrCode(),
		})
	}

	logrus.WithError(err).WithField("path", c.Path()).Error("[REST] Unhandled error")
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
		"code":  "INTERNAL_SERVER_ERROR",
	})
}
