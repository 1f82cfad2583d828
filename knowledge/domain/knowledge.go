package domain

import (
	"context"
	"time"

	pkgError "github.com/AzielCF/az-agent/pkg/error"
)

type DocumentType string

const (
	DocumentText     DocumentType = "text"
	DocumentMarkdown DocumentType = "markdown"
	DocumentHTML     DocumentType = "html"
	DocumentJSON     DocumentType = "json"
	// DocumentFile is resolved to one of the types above from Name's extension.
	DocumentFile DocumentType = "file"
)

// Document is raw knowledge supplied by an admin before extraction and chunking.
type Document struct {
	ID      string       `json:"id,omitempty"`
	Name    string       `json:"name"`
	Type    DocumentType `json:"type"`
	Content string       `json:"content"`
}

// Chunk is one embedded passage stored under an agent namespace.
type Chunk struct {
	ID        string
	Namespace string
	Content   string
	Metadata  map[string]any
	Embedding []float32
	CreatedAt time.Time
}

// Passage is a retrieval hit. Relevance is 1 - cosine distance.
type Passage struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Relevance float64        `json:"relevance"`
}

const (
	MaxChunkLength = 500
	DefaultLimit   = 5
)

const ErrNamespaceNotFound = pkgError.NotFoundError("knowledge namespace not found")

// Namespace is the per-agent collection name.
func Namespace(agentID string) string {
	return "agent_" + agentID + "_knowledge"
}

// Store is a vector store partitioned by namespace.
type Store interface {
	// Upsert creates the namespace on first use and replaces chunks with the same ID.
	Upsert(ctx context.Context, namespace string, chunks []Chunk) error
	// Query returns ErrNamespaceNotFound when nothing was ever written to namespace.
	Query(ctx context.Context, namespace string, vector []float32, limit int) ([]Passage, error)
	// DeleteNamespace is idempotent.
	DeleteNamespace(ctx context.Context, namespace string) error
	CountChunks(ctx context.Context, namespace string) (int64, error)
}

// Embedder turns texts into fixed-length vectors.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
