package rest

import (
	"fmt"
	"io"
	"strings"

	"github.com/AzielCF/az-agent/knowledge/application"
	"github.com/AzielCF/az-agent/knowledge/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const maxSearchLimit = 50

type UploadRequest struct {
	Documents []domain.Document `json:"documents"`
}

type KnowledgeHandler struct {
	service *application.KnowledgeService
}

func NewKnowledgeHandler(service *application.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

func (h *KnowledgeHandler) RegisterRoutes(router fiber.Router) {
	knowledge := router.Group("/agents/:id/knowledge")

	knowledge.Post("/", h.Upload)
	knowledge.Delete("/", h.Delete)
	knowledge.Get("/search", h.Search)
}

// Upload accepts either a JSON body or multipart files under "documents".
func (h *KnowledgeHandler) Upload(c *fiber.Ctx) error {
	var docs []domain.Document
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		parsed, err := documentsFromForm(c)
		if err != nil {
			return utils.ErrorResponse(c, err)
		}
		docs = parsed
	} else {
		var req UploadRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
		}
		docs = req.Documents
	}

	chunks, err := h.service.Upsert(c.UserContext(), c.Params("id"), docs)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"chunks": chunks})
}

func documentsFromForm(c *fiber.Ctx) ([]domain.Document, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, pkgError.ValidationError("invalid multipart form")
	}
	files := form.File["documents"]
	if len(files) == 0 {
		return nil, pkgError.ValidationError("no documents uploaded")
	}

	docs := make([]domain.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, pkgError.ValidationError(fmt.Sprintf("cannot open %s", fh.Filename))
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, pkgError.ValidationError(fmt.Sprintf("cannot read %s", fh.Filename))
		}
		docs = append(docs, domain.Document{
			Name:    fh.Filename,
			Type:    domain.DocumentFile,
			Content: string(content),
		})
	}
	return docs, nil
}

func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteNamespace(c.UserContext(), c.Params("id")); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "knowledge deleted"})
}

func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return utils.ErrorResponse(c, pkgError.ValidationError("q is required"))
	}
	limit := c.QueryInt("limit", domain.DefaultLimit)
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	passages, err := h.service.Query(c.UserContext(), c.Params("id"), q, limit)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"results": passages})
}
