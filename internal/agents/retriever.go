package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/providers/search"
)

// Passage is one retrieved snippet ready for prompt insertion.
type Passage struct {
	SourceID string  `json:"source_id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

// RetrievalResult holds ranked passages and renders the bounded context
// block injected into prompts.
type RetrievalResult struct {
	Passages   []Passage
	charBudget int
}

// Retriever shapes raw search hits into ranked passages. Embedding and
// nearest-neighbor search stay behind the search.Service boundary.
type Retriever struct {
	svc        search.Service
	topK       int
	charBudget int
	tracer     trace.Tracer
}

func NewRetriever(svc search.Service, topK, charBudget int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if charBudget <= 0 {
		charBudget = 6000
	}
	return &Retriever{
		svc:        svc,
		topK:       topK,
		charBudget: charBudget,
		tracer:     otel.Tracer("quantwiki.agents.retriever"),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	ctx, span := r.tracer.Start(ctx, "rag.retrieve",
		trace.WithAttributes(
			attribute.String("retrieval.query", query),
			attribute.Int("retrieval.top_k", r.topK),
		))
	defer span.End()

	hits, err := r.svc.Search(ctx, query, r.topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	passages := make([]Passage, 0, len(hits))
	for _, h := range hits {
		passages = append(passages, Passage{
			SourceID: h.ID,
			Title:    h.Title,
			URL:      h.URL,
			Snippet:  h.Text,
			Score:    h.Score,
		})
	}

	// Backends return ranked results already; a stable sort keeps the
	// backend's order for equal scores.
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > r.topK {
		passages = passages[:r.topK]
	}

	span.SetAttributes(attribute.Int("retrieval.passages", len(passages)))
	span.SetStatus(codes.Ok, "")

	return &RetrievalResult{Passages: passages, charBudget: r.charBudget}, nil
}

// ContextBlock renders the passages with inline citations, never
// exceeding the character budget. When over budget the lowest-ranked
// passages are dropped whole.
func (res *RetrievalResult) ContextBlock() string {
	if res == nil || len(res.Passages) == 0 {
		return ""
	}

	budget := res.charBudget
	if budget <= 0 {
		budget = 6000
	}

	var b strings.Builder
	header := "RETRIEVED CONTEXT:\n"
	if len(header) > budget {
		return ""
	}
	b.WriteString(header)

	for i, p := range res.Passages {
		entry := fmt.Sprintf("\nSource %d: %s\n%s\n", i+1, p.Title, p.Snippet)
		if b.Len()+len(entry) > budget {
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}

// Titles returns the passage titles in rank order, deduplicated.
func (res *RetrievalResult) Titles() []string {
	if res == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(res.Passages))
	titles := make([]string, 0, len(res.Passages))
	for _, p := range res.Passages {
		if _, ok := seen[p.Title]; ok {
			continue
		}
		seen[p.Title] = struct{}{}
		titles = append(titles, p.Title)
	}
	return titles
}
