package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/quantwiki/quantwiki/internal/models"
	pgrepo "github.com/quantwiki/quantwiki/internal/repositories/postgres"
	"github.com/quantwiki/quantwiki/internal/utils"
)

// ConversationService is the durable history boundary for the pipeline:
// append-only writes, chronological reads.
type ConversationService interface {
	Append(ctx context.Context, conversationID, role, content string, meta *models.TurnMetadata) (*models.Turn, error)
	History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
	ListConversations(ctx context.Context) ([]string, error)
	Healthy(ctx context.Context) bool
}

type conversationService struct {
	turns pgrepo.TurnRepo
}

func NewConversationService(turns pgrepo.TurnRepo) ConversationService {
	return &conversationService{turns: turns}
}

func (s *conversationService) Append(ctx context.Context, conversationID, role, content string, meta *models.TurnMetadata) (*models.Turn, error) {
	const op = "ConversationService.Append"

	if conversationID == "" || role == "" || content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id, role, and content are required", nil)
	}
	if role != models.RoleUser && role != models.RoleAssistant {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be user or assistant", nil)
	}

	row := &models.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to encode turn metadata", err)
		}
		row.Metadata = datatypes.JSON(b)
	}

	if err := s.turns.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert conversation turn", err)
	}
	return row, nil
}

func (s *conversationService) History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	const op = "ConversationService.History"

	if conversationID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}

	rows, err := s.turns.History(ctx, conversationID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load conversation history", err)
	}
	return rows, nil
}

func (s *conversationService) Healthy(ctx context.Context) bool {
	return s.turns.Ping(ctx) == nil
}

func (s *conversationService) ListConversations(ctx context.Context) ([]string, error) {
	const op = "ConversationService.ListConversations"

	ids, err := s.turns.ListConversations(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return ids, nil
}
