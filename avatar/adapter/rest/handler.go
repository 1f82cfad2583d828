package rest

import (
	"github.com/AzielCF/az-agent/avatar/application"
	"github.com/AzielCF/az-agent/avatar/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AvatarHandler struct {
	service *application.Service
}

func NewAvatarHandler(service *application.Service) *AvatarHandler {
	return &AvatarHandler{service: service}
}

func (h *AvatarHandler) RegisterRoutes(router fiber.Router) {
	avatars := router.Group("/avatars")

	avatars.Get("/gallery", h.Gallery)
	avatars.Get("/gallery/:id", h.GalleryItem)
	avatars.Get("/animations/:type", h.Animation)
	avatars.Post("/lipsync", h.LipSync)
}

func (h *AvatarHandler) Gallery(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"avatars": h.service.Gallery()})
}

func (h *AvatarHandler) GalleryItem(c *fiber.Ctx) error {
	avatar, ok := domain.FindGalleryAvatar(c.Params("id"))
	if !ok {
		return utils.ErrorResponse(c, domain.ErrAvatarNotFound)
	}
	return c.JSON(avatar)
}

func (h *AvatarHandler) Animation(c *fiber.Ctx) error {
	return c.JSON(h.service.Animate(c.Params("type")))
}

func (h *AvatarHandler) LipSync(c *fiber.Ctx) error {
	var req domain.LipSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}
	res, err := h.service.LipSync(c.UserContext(), req)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(res)
}
