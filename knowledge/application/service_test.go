package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/core/database"
	"github.com/AzielCF/az-agent/knowledge/domain"
	"github.com/AzielCF/az-agent/knowledge/embedding"
	"github.com/AzielCF/az-agent/knowledge/repository"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgents map[string]*agentDomain.Agent

func (f fakeAgents) GetByID(_ context.Context, id string) (*agentDomain.Agent, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, agentDomain.ErrAgentNotFound
}

type failingEmbedder struct{}

func (failingEmbedder) Name() string { return "failing" }
func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func setupService(t *testing.T) (*KnowledgeService, *repository.ChunkGormRepository) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	store := repository.NewChunkGormRepository(db)
	require.NoError(t, store.InitSchema(context.Background()))

	agents := fakeAgents{"a1": {ID: "a1"}, "a2": {ID: "a2"}}
	return NewKnowledgeService(agents, store, embedding.NewHashEmbedder(0)), store
}

func TestKnowledgeService_UpsertAndQuery(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	n, err := svc.Upsert(ctx, "a1", []domain.Document{
		{ID: "pricing", Name: "pricing.txt", Type: domain.DocumentText, Content: "Enterprise pricing starts at 500 dollars per month. Discounts apply to annual plans."},
		{ID: "hours", Name: "hours.md", Type: domain.DocumentMarkdown, Content: "# Hours\nThe office opens at nine in the morning."},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.CountChunks(ctx, domain.Namespace("a1"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	passages, err := svc.Query(ctx, "a1", "enterprise pricing per month", 5)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "pricing_chunk_0", passages[0].ID)
	assert.GreaterOrEqual(t, passages[0].Relevance, passages[1].Relevance)
	assert.Equal(t, "pricing.txt", passages[0].Metadata["name"])
	assert.EqualValues(t, 1, passages[0].Metadata["totalChunks"])

	// same ids replace instead of duplicating
	_, err = svc.Upsert(ctx, "a1", []domain.Document{{ID: "pricing", Name: "pricing.txt", Content: "Pricing changed."}})
	require.NoError(t, err)
	count, err = store.CountChunks(ctx, domain.Namespace("a1"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestKnowledgeService_QueryUnknownNamespaceIsEmpty(t *testing.T) {
	svc, _ := setupService(t)

	passages, err := svc.Query(context.Background(), "a2", "anything", 5)
	require.NoError(t, err)
	assert.NotNil(t, passages)
	assert.Empty(t, passages)
}

func TestKnowledgeService_DeleteIsIdempotent(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "a1", []domain.Document{{Name: "n", Content: "Some fact."}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNamespace(ctx, "a1"))
	require.NoError(t, svc.DeleteNamespace(ctx, "a1"))

	count, err := store.CountChunks(ctx, domain.Namespace("a1"))
	require.NoError(t, err)
	assert.Zero(t, count)

	passages, err := svc.Query(ctx, "a1", "fact", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestKnowledgeService_LongDocumentIsChunked(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	content := strings.Repeat("We deliver across the whole country within three days. ", 40)
	n, err := svc.Upsert(ctx, "a1", []domain.Document{{ID: "d", Name: "delivery", Type: domain.DocumentText, Content: content}})
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	passages, err := svc.Query(ctx, "a1", "delivery", 100)
	require.NoError(t, err)
	require.Len(t, passages, n)
	for _, p := range passages {
		assert.LessOrEqual(t, len(p.Content), domain.MaxChunkLength)
		assert.Equal(t, "text", p.Metadata["type"])
	}
}

func TestKnowledgeService_AddConversation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddConversation(ctx, "a1", "Do you ship abroad?", "Yes, we ship to 30 countries."))

	passages, err := svc.Query(ctx, "a1", "ship abroad", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Regexp(t, `^conv_\d+_[a-z0-9]{9}$`, passages[0].ID)
	assert.Equal(t, "Q: Do you ship abroad?\nA: Yes, we ship to 30 countries.", passages[0].Content)
	assert.Equal(t, "conversation", passages[0].Metadata["type"])
	assert.Equal(t, "user_conversation", passages[0].Metadata["source"])
}

func TestKnowledgeService_Errors(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "missing", []domain.Document{{Name: "n", Content: "x."}})
	assert.ErrorIs(t, err, agentDomain.ErrAgentNotFound)

	_, err = svc.Upsert(ctx, "a1", nil)
	var validation pkgError.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Upsert(ctx, "a1", []domain.Document{{Name: "bad.json", Type: domain.DocumentJSON, Content: "{"}})
	assert.ErrorAs(t, err, &validation)

	svc.embedder = failingEmbedder{}
	_, err = svc.Upsert(ctx, "a1", []domain.Document{{Name: "n", Content: "x."}})
	var internal pkgError.InternalServerError
	assert.ErrorAs(t, err, &internal)
}
