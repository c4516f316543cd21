package search

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/providers/llm"
	pgrepo "github.com/quantwiki/quantwiki/internal/repositories/postgres"
	"github.com/quantwiki/quantwiki/internal/utils"
)

// PgvectorSearch embeds the query and runs cosine nearest-neighbor over
// the wiki_chunks corpus.
type PgvectorSearch struct {
	chunks   pgrepo.ChunkRepo
	embedder llm.Embedder
	tracer   trace.Tracer
}

func NewPgvectorSearch(chunks pgrepo.ChunkRepo, embedder llm.Embedder) *PgvectorSearch {
	return &PgvectorSearch{
		chunks:   chunks,
		embedder: embedder,
		tracer:   otel.Tracer("quantwiki.search.pgvector"),
	}
}

func (s *PgvectorSearch) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	const op = "PgvectorSearch.Search"

	ctx, span := s.tracer.Start(ctx, "rag.search", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("search.query", query),
			attribute.Int("search.top_k", topK),
		))
	defer span.End()

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed query", err)
	}

	rows, err := s.chunks.NearestByEmbedding(ctx, embedding, topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, utils.E(utils.CodeUnavailable, op, "similarity search failed", err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, Hit{
			ID:    row.DocID,
			Title: row.Title,
			URL:   row.URL,
			Text:  row.Content,
			Score: row.Score,
		})
	}

	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	span.SetStatus(codes.Ok, "")
	return hits, nil
}

func (s *PgvectorSearch) Healthy(ctx context.Context) bool {
	n, err := s.chunks.Count(ctx)
	return err == nil && n > 0
}
