package rest

import (
	"strings"

	"github.com/AzielCF/az-agent/conversation/application"
	"github.com/AzielCF/az-agent/conversation/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ChatRequest struct {
	Message             string                `json:"message"`
	AgentID             string                `json:"agentId"`
	ConversationHistory []domain.HistoryEntry `json:"conversationHistory"`
	UserID              string                `json:"userId"`
}

type IntentRequest struct {
	Message string `json:"message"`
	AgentID string `json:"agentId"`
}

type ConversationHandler struct {
	orchestrator *application.Orchestrator
}

func NewConversationHandler(orchestrator *application.Orchestrator) *ConversationHandler {
	return &ConversationHandler{orchestrator: orchestrator}
}

func (h *ConversationHandler) RegisterRoutes(router fiber.Router) {
	conversation := router.Group("/conversation")

	conversation.Post("/chat", h.Chat)
	conversation.Post("/intent", h.Intent)
}

func (h *ConversationHandler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}
	if strings.TrimSpace(req.Message) == "" || req.AgentID == "" {
		return utils.ErrorResponse(c, pkgError.ValidationError("message and agentId are required"))
	}

	result := h.orchestrator.HandleTurn(c.UserContext(), domain.TurnRequest{
		Message: req.Message,
		AgentID: req.AgentID,
		History: req.ConversationHistory,
		UserID:  req.UserID,
	})
	return c.JSON(result)
}

func (h *ConversationHandler) Intent(c *fiber.Ctx) error {
	var req IntentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}
	if strings.TrimSpace(req.Message) == "" || req.AgentID == "" {
		return utils.ErrorResponse(c, pkgError.ValidationError("message and agentId are required"))
	}
	return c.JSON(fiber.Map{"intent": h.orchestrator.ClassifyIntent(req.Message)})
}
