package agents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantwiki/quantwiki/internal/models"
	"github.com/quantwiki/quantwiki/internal/providers/llm"
)

func TestGenerator_Generate(t *testing.T) {
	t.Run("Should return the draft from the completion", func(t *testing.T) {
		p := &stubProvider{generate: "the draft"}
		g := NewGenerator(p)

		draft, err := g.Generate(t.Context(), "question", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "the draft", draft)
		assert.Equal(t, 1, p.callCount("llm.generate_knowledge"))
	})

	t.Run("Should run grounded when context is present", func(t *testing.T) {
		p := &stubProvider{generate: "grounded draft"}
		g := NewGenerator(p)
		res := &RetrievalResult{charBudget: 6000, Passages: []Passage{{Title: "A", Snippet: "aa", Score: 0.9}}}

		_, err := g.Generate(t.Context(), "question", nil, res)
		require.NoError(t, err)
		assert.Equal(t, 1, p.callCount("llm.generate_grounded"))
	})

	t.Run("Should fall back to knowledge mode on an empty retrieval", func(t *testing.T) {
		p := &stubProvider{generate: "draft"}
		g := NewGenerator(p)

		_, err := g.Generate(t.Context(), "question", nil, &RetrievalResult{charBudget: 6000})
		require.NoError(t, err)
		assert.Equal(t, 1, p.callCount("llm.generate_knowledge"))
	})

	t.Run("Should propagate a generation failure", func(t *testing.T) {
		p := &stubProvider{failAll: true}
		g := NewGenerator(p)

		_, err := g.Generate(t.Context(), "question", nil, nil)
		assert.Error(t, err)
	})
}

func TestGenerator_buildMessages(t *testing.T) {
	g := NewGenerator(&stubProvider{})

	t.Run("Should inject the context block before the question in grounded mode", func(t *testing.T) {
		res := &RetrievalResult{charBudget: 6000, Passages: []Passage{{Title: "Qubit", Snippet: "two-level system", Score: 0.9}}}

		msgs := g.buildMessages("what is a qubit?", nil, res, true)
		require.Len(t, msgs, 2)
		assert.Equal(t, llm.RoleSystem, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, "ONLY on the provided context")
		last := msgs[len(msgs)-1]
		assert.Equal(t, llm.RoleUser, last.Role)
		assert.Contains(t, last.Content, "Source 1: Qubit")
		assert.Contains(t, last.Content, "QUESTION: what is a qubit?")
	})

	t.Run("Should keep only the most recent history turns", func(t *testing.T) {
		var history []models.Turn
		for i := 0; i < 10; i++ {
			history = append(history, models.Turn{Role: models.RoleUser, Content: fmt.Sprintf("turn-%d", i)})
		}

		msgs := g.buildMessages("now", history, nil, false)
		// system + window + current question
		require.Len(t, msgs, 1+historyWindow+1)
		assert.Equal(t, "turn-4", msgs[1].Content)
		assert.Equal(t, "turn-9", msgs[historyWindow].Content)
		assert.Equal(t, "now", msgs[len(msgs)-1].Content)
	})
}
