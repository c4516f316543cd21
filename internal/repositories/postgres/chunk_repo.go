package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quantwiki/quantwiki/internal/models"
)

type ChunkRepo interface {
	NearestByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int64, error)
}

// ScoredChunk pairs a corpus chunk with its cosine similarity to the
// query embedding, already mapped so that higher is better.
type ScoredChunk struct {
	models.WikiChunk
	Score float64 `gorm:"column:score"`
}

type chunkRepo struct {
	db *gorm.DB
}

func NewChunkRepo(db *gorm.DB) ChunkRepo {
	return &chunkRepo{db: db}
}

func (r *chunkRepo) NearestByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []ScoredChunk
	err := r.db.WithContext(ctx).
		Model(&models.WikiChunk{}).
		Select("*, 1 - (embedding <=> ?) AS score", pgvector.NewVector(embedding)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?",
			Vars: []interface{}{pgvector.NewVector(embedding)},
		}}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *chunkRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WikiChunk{}).Count(&n).Error
	return n, err
}
