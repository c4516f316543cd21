package agents

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/quantwiki/quantwiki/internal/models"
	"github.com/quantwiki/quantwiki/internal/providers/llm"
	"github.com/quantwiki/quantwiki/internal/providers/search"
)

type stubProvider struct {
	mu          sync.Mutex
	calls       []string
	generate    string
	review      string
	summary     string
	failAll     bool
	failSummary bool
}

func (p *stubProvider) Complete(_ context.Context, _ []llm.Message, opts llm.Options) (*llm.Completion, error) {
	p.mu.Lock()
	p.calls = append(p.calls, opts.SpanName)
	p.mu.Unlock()

	if p.failAll {
		return nil, errors.New("completion backend down")
	}

	switch {
	case opts.SpanName == "llm.generate_summary":
		if p.failSummary {
			return nil, errors.New("summary backend down")
		}
		return &llm.Completion{Text: p.summary}, nil
	case strings.HasPrefix(opts.SpanName, "llm.review_"):
		return &llm.Completion{Text: p.review}, nil
	default:
		return &llm.Completion{Text: p.generate}, nil
	}
}

func (p *stubProvider) Healthy(context.Context) bool { return !p.failAll }
func (p *stubProvider) Close() error                 { return nil }

func (p *stubProvider) callCount(spanName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == spanName {
			n++
		}
	}
	return n
}

type stubSearch struct {
	mu    sync.Mutex
	hits  []search.Hit
	err   error
	calls int
}

func (s *stubSearch) Search(context.Context, string, int) ([]search.Hit, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func (s *stubSearch) Healthy(context.Context) bool { return s.err == nil }

type stubStore struct {
	mu         sync.Mutex
	turns      map[string][]models.Turn
	appendErr  error
	historyErr error
}

func newStubStore() *stubStore {
	return &stubStore{turns: map[string][]models.Turn{}}
}

func (s *stubStore) Append(_ context.Context, conversationID, role, content string, _ *models.TurnMetadata) (*models.Turn, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := models.Turn{ConversationID: conversationID, Role: role, Content: content}
	s.turns[conversationID] = append(s.turns[conversationID], turn)
	return &turn, nil
}

func (s *stubStore) History(_ context.Context, conversationID string, _ int) ([]models.Turn, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Turn(nil), s.turns[conversationID]...), nil
}

func (s *stubStore) count(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns[conversationID])
}

var goodVerdictJSON = `{"label": "good", "rationale": "well supported", "suggestions": "", "confidence": 0.9}`

func defaultHits() []search.Hit {
	return []search.Hit{
		{ID: "doc-1", Title: "Quantum entanglement", URL: "https://en.wikipedia.org/wiki/Quantum_entanglement", Text: "Entangled particles share state.", Score: 0.92},
		{ID: "doc-2", Title: "Bell's theorem", URL: "https://en.wikipedia.org/wiki/Bell%27s_theorem", Text: "No local hidden variables.", Score: 0.85},
	}
}
