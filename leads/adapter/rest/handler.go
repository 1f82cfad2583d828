package rest

import (
	"github.com/AzielCF/az-agent/leads/application"
	"github.com/AzielCF/az-agent/leads/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type LeadHandler struct {
	service *application.LeadService
}

func NewLeadHandler(service *application.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

func (h *LeadHandler) RegisterRoutes(router fiber.Router) {
	leads := router.Group("/leads")

	leads.Post("/", h.CreateLead)
	leads.Get("/", h.ListLeads)
	leads.Get("/:id", h.GetLead)
	leads.Put("/:id", h.UpdateLead)
	leads.Post("/:id/conversation", h.AddConversation)
}

func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	var req CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}
	if req.AgentID == "" || req.ContactInfo == nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("agentId and contactInfo are required"))
	}

	lead := &domain.Lead{
		AgentID:             req.AgentID,
		ContactInfo:         *req.ContactInfo,
		CustomFields:        req.CustomFields,
		ConversationHistory: req.ConversationHistory,
		Source:              req.Source,
		Tags:                req.Tags,
	}
	if err := h.service.Create(c.UserContext(), lead); err != nil {
		return utils.ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          lead.ID,
		"contactInfo": lead.ContactInfo,
		"status":      lead.Status,
		"createdAt":   lead.CreatedAt,
	})
}

func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), domain.LeadFilter{
		AgentID: c.Query("agentId"),
		Status:  domain.Status(c.Query("status")),
		Page:    c.QueryInt("page", 1),
		Limit:   c.QueryInt("limit", utils.DefaultPageLimit),
	})
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(page)
}

func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	lead, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(lead)
}

func (h *LeadHandler) UpdateLead(c *fiber.Ctx) error {
	var req UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}

	lead, err := h.service.Update(c.UserContext(), c.Params("id"), req.apply)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(lead)
}

func (h *LeadHandler) AddConversation(c *fiber.Ctx) error {
	var req AddConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}

	err := h.service.AddConversation(c.UserContext(), c.Params("id"), domain.ConversationEntry{
		Message: req.Message,
		Sender:  domain.Sender(req.Sender),
		Intent:  req.Intent,
	})
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "conversation added"})
}
