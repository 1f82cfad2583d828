package rest

import (
	"github.com/AzielCF/az-agent/agents/application"
	"github.com/AzielCF/az-agent/agents/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// AgentHandler serves the admin CRUD endpoints for agents.
type AgentHandler struct {
	service *application.AgentService
}

func NewAgentHandler(service *application.AgentService) *AgentHandler {
	return &AgentHandler{service: service}
}

// RegisterRoutes mounts /agents on router.
func (h *AgentHandler) RegisterRoutes(router fiber.Router) {
	agents := router.Group("/agents")

	agents.Get("/", h.ListAgents)
	agents.Post("/", h.CreateAgent)
	agents.Get("/:id", h.GetAgent)
	agents.Put("/:id", h.UpdateAgent)
	agents.Delete("/:id", h.DeleteAgent)
}

func (h *AgentHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.service.ListByOwner(c.UserContext(), c.Query("ownerId"),
		c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(agents)
}

func (h *AgentHandler) CreateAgent(c *fiber.Ctx) error {
	var req CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}

	agent := req.toDomain()
	if err := h.service.Create(c.UserContext(), agent); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(agent)
}

func (h *AgentHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(agent)
}

func (h *AgentHandler) UpdateAgent(c *fiber.Ctx) error {
	var req UpdateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}

	agent, err := h.service.Update(c.UserContext(), c.Params("id"), func(a *domain.Agent) {
		req.apply(a)
	})
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(agent)
}

// DeleteAgent deactivates the agent; its leads and appointments are kept.
func (h *AgentHandler) DeleteAgent(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "agent deleted"})
}
