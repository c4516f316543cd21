package agents

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantwiki/quantwiki/internal/models"
)

type pipelineFixture struct {
	provider *stubProvider
	search   *stubSearch
	store    *stubStore
	orch     *Orchestrator
}

func newPipelineFixture() *pipelineFixture {
	provider := &stubProvider{
		generate: "entanglement links particle states",
		review:   goodVerdictJSON,
		summary:  "a short summary",
	}
	searchSvc := &stubSearch{hits: defaultHits()}
	store := newStubStore()
	log := testLogger()

	orch := NewOrchestrator(
		NewRouter(0.5, rand.New(rand.NewSource(7))),
		NewRetriever(searchSvc, 5, 6000),
		NewGenerator(provider),
		NewReviewer(provider, log),
		NewFormatter(provider, log),
		store,
		10,
		log,
	)
	return &pipelineFixture{provider: provider, search: searchSvc, store: store, orch: orch}
}

func TestOrchestrator_ProcessTurn(t *testing.T) {
	t.Run("Should retrieve and answer when forced on", func(t *testing.T) {
		fx := newPipelineFixture()

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "What is quantum entanglement?", ModeForcedOn)
		require.NoError(t, err)
		assert.True(t, res.UsedRetrieval)
		assert.False(t, res.Degraded)
		assert.NotEmpty(t, res.SourceTitles)
		assert.Contains(t, []string{LabelGood, LabelNeedsRevision, LabelBad}, res.Verdict.Label)
		assert.Contains(t, res.FinalText, "entanglement links particle states")
		assert.Equal(t, "a short summary", res.Summary)
	})

	t.Run("Should leave the summary empty when summarization fails", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.provider.failSummary = true

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "What is quantum entanglement?", ModeForcedOff)
		require.NoError(t, err)
		assert.Empty(t, res.Summary)
		assert.Contains(t, res.FinalText, "entanglement links particle states")
	})

	t.Run("Should skip retrieval entirely when forced off", func(t *testing.T) {
		fx := newPipelineFixture()

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "What is quantum entanglement?", ModeForcedOff)
		require.NoError(t, err)
		assert.False(t, res.UsedRetrieval)
		assert.Empty(t, res.SourceTitles)
		assert.Equal(t, 0, fx.search.calls)
		assert.NotEmpty(t, res.FinalText)
	})

	t.Run("Should degrade, not fail, when retrieval is down", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.search.err = errors.New("vector store unreachable")

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "What is quantum entanglement?", ModeForcedOn)
		require.NoError(t, err)
		assert.False(t, res.UsedRetrieval)
		assert.True(t, res.Degraded)
		assert.Empty(t, res.SourceTitles)
		assert.NotEmpty(t, res.FinalText)
		assert.True(t, res.Persisted)
	})

	t.Run("Should fail the turn and persist nothing when generation is down", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.provider.failAll = true

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "What is quantum entanglement?", ModeForcedOff)
		require.Error(t, err)
		require.NotNil(t, res)
		assert.Equal(t, failureText, res.FinalText)
		assert.Equal(t, FallbackVerdict(), res.Verdict)
		assert.Equal(t, 0, fx.store.count("c1"))
	})

	t.Run("Should fail on a history load error", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.store.historyErr = errors.New("db down")

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "hello", ModeAuto)
		require.Error(t, err)
		require.NotNil(t, res)
		assert.Equal(t, failureText, res.FinalText)
		assert.Equal(t, 0, fx.search.calls)
	})

	t.Run("Should append user then assistant turns on success", func(t *testing.T) {
		fx := newPipelineFixture()

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "What is quantum entanglement?", ModeForcedOn)
		require.NoError(t, err)
		assert.True(t, res.Persisted)

		turns, _ := fx.store.History(t.Context(), "c1", 10)
		require.Len(t, turns, 2)
		assert.Equal(t, models.RoleUser, turns[0].Role)
		assert.Equal(t, "What is quantum entanglement?", turns[0].Content)
		assert.Equal(t, models.RoleAssistant, turns[1].Role)
		assert.Equal(t, res.FinalText, turns[1].Content)
	})

	t.Run("Should still return the answer when the append fails", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.store.appendErr = errors.New("store write failed")

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "hello", ModeForcedOff)
		require.NoError(t, err)
		assert.False(t, res.Persisted)
		assert.NotEmpty(t, res.FinalText)
	})

	t.Run("Should absorb a review failure into the fallback verdict", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.provider.review = "no structure here"

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "hello", ModeForcedOff)
		require.NoError(t, err)
		assert.Equal(t, FallbackVerdict().Label, res.Verdict.Label)
		assert.Contains(t, res.FinalText, "may contain inaccuracies")
	})

	t.Run("Should keep used_retrieval true on zero hits", func(t *testing.T) {
		fx := newPipelineFixture()
		fx.search.hits = nil

		res, err := fx.orch.ProcessTurn(t.Context(), "c1", "hello", ModeForcedOn)
		require.NoError(t, err)
		assert.True(t, res.UsedRetrieval)
		assert.False(t, res.Degraded)
		assert.Empty(t, res.SourceTitles)
	})

	t.Run("Should reject empty input", func(t *testing.T) {
		fx := newPipelineFixture()

		_, err := fx.orch.ProcessTurn(t.Context(), "", "hello", ModeAuto)
		assert.Error(t, err)

		_, err = fx.orch.ProcessTurn(t.Context(), "c1", "", ModeAuto)
		assert.Error(t, err)
	})
}
