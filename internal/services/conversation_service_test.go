package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantwiki/quantwiki/internal/models"
	"github.com/quantwiki/quantwiki/internal/utils"
)

type fakeTurnRepo struct {
	inserted []*models.Turn
	pingErr  error
}

func (r *fakeTurnRepo) Insert(_ context.Context, turn *models.Turn) error {
	r.inserted = append(r.inserted, turn)
	return nil
}

func (r *fakeTurnRepo) History(context.Context, string, int) ([]models.Turn, error) {
	return nil, nil
}

func (r *fakeTurnRepo) ListConversations(context.Context) ([]string, error) {
	return []string{"c1"}, nil
}

func (r *fakeTurnRepo) Ping(context.Context) error {
	return r.pingErr
}

func TestConversationService_Append(t *testing.T) {
	t.Run("Should insert a turn with generated id and metadata", func(t *testing.T) {
		repo := &fakeTurnRepo{}
		svc := NewConversationService(repo)

		meta := &models.TurnMetadata{UsedRetrieval: true, ReviewLabel: "good", SourceTitles: []string{"A"}}
		turn, err := svc.Append(t.Context(), "c1", models.RoleAssistant, "answer", meta)
		require.NoError(t, err)
		assert.NotEmpty(t, turn.ID)
		assert.False(t, turn.CreatedAt.IsZero())
		require.Len(t, repo.inserted, 1)

		var decoded models.TurnMetadata
		require.NoError(t, json.Unmarshal(repo.inserted[0].Metadata, &decoded))
		assert.True(t, decoded.UsedRetrieval)
		assert.Equal(t, []string{"A"}, decoded.SourceTitles)
	})

	t.Run("Should reject missing fields", func(t *testing.T) {
		svc := NewConversationService(&fakeTurnRepo{})

		_, err := svc.Append(t.Context(), "", models.RoleUser, "hi", nil)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

		_, err = svc.Append(t.Context(), "c1", "narrator", "hi", nil)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})
}

func TestConversationService_Healthy(t *testing.T) {
	t.Run("Should report healthy when the store pings", func(t *testing.T) {
		svc := NewConversationService(&fakeTurnRepo{})
		assert.True(t, svc.Healthy(t.Context()))
	})

	t.Run("Should report unhealthy when the ping fails", func(t *testing.T) {
		svc := NewConversationService(&fakeTurnRepo{pingErr: errors.New("connection refused")})
		assert.False(t, svc.Healthy(t.Context()))
	})
}
