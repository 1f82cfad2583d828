package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/knowledge/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AgentDirectory is the slice of the agent service knowledge writes depend on.
type AgentDirectory interface {
	GetByID(ctx context.Context, id string) (*agentDomain.Agent, error)
}

const (
	defaultChunkType = "document"
	defaultDocName   = "Unknown"
	// documents extracted and embedded in parallel per upsert
	upsertParallelism = 4
)

type KnowledgeService struct {
	agents   AgentDirectory
	store    domain.Store
	embedder domain.Embedder
	maxChunk int
	now      func() time.Time
}

func NewKnowledgeService(agents AgentDirectory, store domain.Store, embedder domain.Embedder) *KnowledgeService {
	return &KnowledgeService{
		agents:   agents,
		store:    store,
		embedder: embedder,
		maxChunk: domain.MaxChunkLength,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upsert extracts, chunks and embeds docs into the agent namespace and returns
// the number of chunks written.
func (s *KnowledgeService) Upsert(ctx context.Context, agentID string, docs []domain.Document) (int, error) {
	if agentID == "" {
		return 0, pkgError.ValidationError("agentId is required")
	}
	if len(docs) == 0 {
		return 0, pkgError.ValidationError("at least one document is required")
	}
	if s.agents != nil {
		if _, err := s.agents.GetByID(ctx, agentID); err != nil {
			return 0, err
		}
	}

	perDoc := make([][]domain.Chunk, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertParallelism)
	for i, doc := range docs {
		g.Go(func() error {
			chunks, err := s.buildChunks(gctx, doc)
			if err != nil {
				return err
			}
			perDoc[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var all []domain.Chunk
	for _, chunks := range perDoc {
		all = append(all, chunks...)
	}
	if len(all) == 0 {
		return 0, nil
	}

	namespace := domain.Namespace(agentID)
	if err := s.store.Upsert(ctx, namespace, all); err != nil {
		return 0, pkgError.InternalServerError(fmt.Sprintf("store knowledge: %v", err))
	}

	logrus.WithFields(logrus.Fields{
		"agent_id":  agentID,
		"documents": len(docs),
		"chunks":    len(all),
		"embedder":  s.embedder.Name(),
	}).Info("[KNOWLEDGE] Documents indexed")
	return len(all), nil
}

func (s *KnowledgeService) buildChunks(ctx context.Context, doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}
	text, err := ExtractText(doc)
	if err != nil {
		return nil, pkgError.ValidationError(err.Error())
	}
	pieces := utils.ChunkText(text, s.maxChunk)
	if len(pieces) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, pieces)
	if err != nil {
		return nil, pkgError.InternalServerError(fmt.Sprintf("embed %s: %v", doc.Name, err))
	}
	if len(vectors) != len(pieces) {
		return nil, pkgError.InternalServerError(fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(pieces)))
	}

	docID := doc.ID
	if docID == "" {
		docID = uuid.New().String()
	}
	docType := string(doc.Type)
	if docType == "" {
		docType = defaultChunkType
	}
	name := doc.Name
	if name == "" {
		name = defaultDocName
	}
	uploadedAt := s.now()

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:      fmt.Sprintf("%s_chunk_%d", docID, i),
			Content: piece,
			Metadata: map[string]any{
				"type":        docType,
				"name":        name,
				"uploadedAt":  uploadedAt.Format(time.RFC3339),
				"chunkIndex":  i,
				"totalChunks": len(pieces),
			},
			Embedding: vectors[i],
			CreatedAt: uploadedAt,
		}
	}
	return chunks, nil
}

// Query returns the passages closest to text. A namespace that was never
// written yields an empty result.
func (s *KnowledgeService) Query(ctx context.Context, agentID, text string, limit int) ([]domain.Passage, error) {
	if strings.TrimSpace(text) == "" {
		return []domain.Passage{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return []domain.Passage{}, nil
	}

	passages, err := s.store.Query(ctx, domain.Namespace(agentID), vectors[0], limit)
	if errors.Is(err, domain.ErrNamespaceNotFound) {
		return []domain.Passage{}, nil
	}
	if err != nil {
		return nil, err
	}
	return passages, nil
}

// DeleteNamespace drops every chunk of the agent. Deleting twice is not an error.
func (s *KnowledgeService) DeleteNamespace(ctx context.Context, agentID string) error {
	if agentID == "" {
		return pkgError.ValidationError("agentId is required")
	}
	if err := s.store.DeleteNamespace(ctx, domain.Namespace(agentID)); err != nil {
		return err
	}
	logrus.WithField("agent_id", agentID).Info("[KNOWLEDGE] Namespace deleted")
	return nil
}

// AddConversation stores a question/answer pair so later turns can retrieve it.
func (s *KnowledgeService) AddConversation(ctx context.Context, agentID, question, answer string) error {
	content := fmt.Sprintf("Q: %s\nA: %s", question, answer)
	vectors, err := s.embedder.Embed(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("embed conversation: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embed conversation: no vector returned")
	}

	now := s.now()
	chunk := domain.Chunk{
		ID:      utils.ConversationID(now),
		Content: content,
		Metadata: map[string]any{
			"type":      "conversation",
			"question":  question,
			"answer":    answer,
			"createdAt": now.Format(time.RFC3339),
			"source":    "user_conversation",
		},
		Embedding: vectors[0],
		CreatedAt: now,
	}
	return s.store.Upsert(ctx, domain.Namespace(agentID), []domain.Chunk{chunk})
}
