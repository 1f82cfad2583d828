package repository

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/AzielCF/az-agent/knowledge/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Models ---

type namespaceModel struct {
	Name       string    `gorm:"primaryKey"`
	Dimensions int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (namespaceModel) TableName() string {
	return "knowledge_namespaces"
}

type chunkModel struct {
	Namespace  string    `gorm:"primaryKey"`
	ChunkID    string    `gorm:"primaryKey"`
	Content    string    `gorm:"type:text;not null"`
	Metadata   string    `gorm:"type:text"` // JSON
	Embedding  []byte    `gorm:"not null"`  // little-endian float32
	Dimensions int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index;not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (chunkModel) TableName() string {
	return "knowledge_chunks"
}

const upsertBatchSize = 100

// --- Repository Implementation ---

// ChunkGormRepository keeps embeddings in the relational store and ranks them
// with an in-process cosine scan per namespace.
type ChunkGormRepository struct {
	db *gorm.DB
}

func NewChunkGormRepository(db *gorm.DB) *ChunkGormRepository {
	return &ChunkGormRepository{db: db}
}

func (r *ChunkGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&namespaceModel{}, &chunkModel{})
}

func (r *ChunkGormRepository) Upsert(ctx context.Context, namespace string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]chunkModel, 0, len(chunks))
	for _, c := range chunks {
		m, err := toChunkModel(namespace, c, now)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ns := namespaceModel{Name: namespace, Dimensions: len(chunks[0].Embedding), CreatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ns).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "chunk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "metadata", "embedding", "dimensions", "updated_at"}),
		}).CreateInBatches(&models, upsertBatchSize).Error
	})
}

func (r *ChunkGormRepository) Query(ctx context.Context, namespace string, vector []float32, limit int) ([]domain.Passage, error) {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&namespaceModel{}).Where("name = ?", namespace).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domain.ErrNamespaceNotFound
	}
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	var models []chunkModel
	if err := r.db.WithContext(ctx).
		Where("namespace = ? AND dimensions = ?", namespace, len(vector)).
		Find(&models).Error; err != nil {
		return nil, err
	}

	hits := make([]domain.Passage, 0, len(models))
	for _, m := range models {
		p, err := fromChunkModel(m)
		if err != nil {
			return nil, err
		}
		p.Relevance = cosineSimilarity(vector, decodeVector(m.Embedding))
		hits = append(hits, p)
	}

	slices.SortStableFunc(hits, func(a, b domain.Passage) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (r *ChunkGormRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("namespace = ?", namespace).Delete(&chunkModel{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", namespace).Delete(&namespaceModel{}).Error
	})
}

func (r *ChunkGormRepository) CountChunks(ctx context.Context, namespace string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&chunkModel{}).Where("namespace = ?", namespace).Count(&n).Error
	return n, err
}

// Mappers

func toChunkModel(namespace string, c domain.Chunk, now time.Time) (chunkModel, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return chunkModel{}, fmt.Errorf("marshal metadata for chunk %s: %w", c.ID, err)
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = now
	}
	return chunkModel{
		Namespace:  namespace,
		ChunkID:    c.ID,
		Content:    c.Content,
		Metadata:   string(meta),
		Embedding:  encodeVector(c.Embedding),
		Dimensions: len(c.Embedding),
		CreatedAt:  created.UTC(),
		UpdatedAt:  now,
	}, nil
}

func fromChunkModel(m chunkModel) (domain.Passage, error) {
	p := domain.Passage{ID: m.ChunkID, Content: m.Content, Metadata: map[string]any{}}
	if m.Metadata != "" && m.Metadata != "null" {
		if err := json.Unmarshal([]byte(m.Metadata), &p.Metadata); err != nil {
			return domain.Passage{}, fmt.Errorf("unmarshal metadata for chunk %s: %w", m.ChunkID, err)
		}
	}
	return p, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// cosineSimilarity is 1 - cosine distance; zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
