package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/quantwiki/quantwiki/internal/models"
)

type TurnRepo interface {
	Insert(ctx context.Context, turn *models.Turn) error
	History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
	ListConversations(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type turnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepo {
	return &turnRepo{db: db}
}

func (r *turnRepo) Insert(ctx context.Context, turn *models.Turn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

// History returns the last `limit` turns in chronological order. An
// unknown conversation id yields an empty slice, not an error.
func (r *turnRepo) History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.Turn
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Query is DESC for the limit; restore chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *turnRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *turnRepo) ListConversations(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Turn{}).
		Distinct("conversation_id").
		Pluck("conversation_id", &ids).Error
	return ids, err
}
